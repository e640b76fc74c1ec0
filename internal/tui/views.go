package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/wizard"
	"github.com/charmbracelet/lipgloss"
)

// renderWizard renders the whole screen.
func (m Model) renderWizard() string {
	snap := m.wiz.Snapshot()

	sections := []string{
		m.theme.Title.Render("coorte · Novo projeto"),
		m.renderSteps(snap.Step),
		"",
		m.renderFields(),
	}

	switch snap.Step {
	case wizard.StepUpload:
		sections = append(sections, "", m.renderUpload(snap))
	case wizard.StepMapping:
		sections = append(sections, "", m.renderColumns(snap))
	case wizard.StepConfiguration:
		sections = append(sections, "", m.renderPreview(snap))
	}

	sections = append(sections, "", m.renderStatus(snap), m.help.View(m.keymap))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderSteps renders the step indicator.
func (m Model) renderSteps(current wizard.Step) string {
	parts := make([]string, 0, len(wizard.Steps))
	for _, s := range wizard.Steps {
		label := fmt.Sprintf("%d %s", int(s), s)
		switch {
		case s == current:
			parts = append(parts, m.theme.StepActive.Render("● "+label))
		case s < current:
			parts = append(parts, m.theme.StepDone.Render("✓ "+label))
		default:
			parts = append(parts, m.theme.StepPending.Render("○ "+label))
		}
	}
	return strings.Join(parts, m.theme.StepPending.Render("  ›  "))
}

// renderFields renders the editable values of the current step.
func (m Model) renderFields() string {
	if len(m.fields) == 0 {
		return m.theme.Hint.Render("Nenhum campo a preencher.")
	}
	lines := make([]string, 0, len(m.fields))
	for i, f := range m.fields {
		label := m.theme.Label.Render(f.label)
		if i == m.focus && !m.searching {
			label = m.theme.FocusedLabel.Render(f.label)
		}
		lines = append(lines, label+" "+f.input.View())
	}
	return strings.Join(lines, "\n")
}

// renderUpload renders what the backend reported about the uploaded files.
func (m Model) renderUpload(snap wizard.Snapshot) string {
	if snap.Upload == nil {
		return m.theme.Hint.Render("Selecione as planilhas e pressione Ctrl+U para carregar e visualizar.")
	}

	state := m.theme.StatusSuccess.Render("✓ carregado")
	if !snap.Uploaded {
		state = m.theme.StatusWarning.Render("arquivos alterados, carregue novamente")
	}
	lines := []string{
		state,
		fmt.Sprintf("%s %d linhas · colunas: %s",
			m.theme.Bold.Render("Beneficiários:"), snap.Upload.RowsBenef,
			strings.Join(model.ColumnsOf(snap.Upload.PreviewBenef, nil), ", ")),
		fmt.Sprintf("%s %d linhas · colunas: %s",
			m.theme.Bold.Render("Ficha:"), snap.Upload.RowsFicha,
			strings.Join(model.ColumnsOf(snap.Upload.PreviewFicha, nil), ", ")),
	}
	return m.theme.BorderedBox.Render(strings.Join(lines, "\n"))
}

// renderColumns lists the spreadsheet columns available for mapping.
func (m Model) renderColumns(snap wizard.Snapshot) string {
	if snap.Suggestions == nil {
		return ""
	}
	lines := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		lines = append(lines, fmt.Sprintf("%s %s",
			m.theme.Bold.Render(c.Label()+":"),
			strings.Join(snap.Suggestions.Get(c).Columns, ", ")))
	}
	lines = append(lines, m.theme.Hint.Render("Identificadores aceitam várias colunas separadas por vírgula."))
	return m.theme.BorderedBox.Render(strings.Join(lines, "\n"))
}

// renderPreview renders the simulated calculation and its search box.
func (m Model) renderPreview(snap wizard.Snapshot) string {
	if snap.Preview == nil {
		return m.theme.Hint.Render("Ctrl+P simula o cálculo, Ctrl+X exporta a base completa.")
	}

	header := fmt.Sprintf("Referência calculada: %s", m.theme.Bold.Render(snap.Preview.ReferenceDate.String()))
	if snap.Preview.TotalRows > 0 {
		header += fmt.Sprintf(" · %d linhas no total", snap.Preview.TotalRows)
	}
	shown := len(m.wiz.SearchPreview(m.search.Value()))
	header += fmt.Sprintf(" · exibindo %d de %d", shown, len(snap.Preview.Rows))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.search.View(),
		m.table.View(),
	)
}

// renderStatus renders the busy indicator, validation errors and the last notification.
func (m Model) renderStatus(snap wizard.Snapshot) string {
	switch {
	case snap.Busy || snap.ActionBusy:
		return m.spinner.View() + " " + m.theme.StatusInfo.Render("Aguardando o servidor de análise...")
	case m.fieldErr != nil:
		return m.theme.StatusError.Render(m.fieldErr.Error())
	case m.status.message != "":
		return m.levelStyle(m.status.level).Render(m.status.message)
	}
	return ""
}

func (m Model) levelStyle(level wizard.Level) lipgloss.Style {
	switch level {
	case wizard.LevelSuccess:
		return m.theme.StatusSuccess
	case wizard.LevelWarning:
		return m.theme.StatusWarning
	case wizard.LevelError:
		return m.theme.StatusError
	default:
		return m.theme.StatusInfo
	}
}
