package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/coorte/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// gridColumns is how many project cards share a row in the grid view.
const gridColumns = 3

// newTable returns a table with the package styles applied.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Headers(headers...)
}

// RenderProjects renders the project catalog as a table (list) or as cards (grid).
func RenderProjects(projects []model.ProjectSummary, mode model.ViewMode) string {
	if len(projects) == 0 {
		return FormatInfo("Nenhum projeto encontrado. Crie um com: coorte wizard")
	}
	if mode == model.ViewGrid {
		return renderProjectGrid(projects)
	}

	t := newTable("ID", "Nome", "Unimed", "Vidas", "Status", "Criado em")
	for _, p := range projects {
		t.Row(p.ID, p.Name, p.Unimed, formatLives(p.Lives), p.Status, p.CreatedAt)
	}
	return t.String()
}

func renderProjectGrid(projects []model.ProjectSummary) string {
	cards := make([]string, 0, len(projects))
	for _, p := range projects {
		lines := []string{
			BoldStyle.Render(p.Name),
			SubtleStyle.Render(p.ID),
			fmt.Sprintf("Unimed %s · %s vidas", p.Unimed, formatLives(p.Lives)),
		}
		if p.Description != "" {
			lines = append(lines, p.Description)
		}
		if len(p.Tags) > 0 {
			lines = append(lines, InfoStyle.Render(strings.Join(p.Tags, " · ")))
		}
		cards = append(cards, CardStyle.Render(strings.Join(lines, "\n")))
	}

	rows := make([]string, 0, (len(cards)+gridColumns-1)/gridColumns)
	for i := 0; i < len(cards); i += gridColumns {
		end := min(i+gridColumns, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func formatLives(lives *int) string {
	if lives == nil {
		return "-"
	}
	return strconv.Itoa(*lives)
}

// RenderProject renders the metadata of one project.
func RenderProject(p *model.Project) string {
	lines := []string{
		fmt.Sprintf("%s %s", BoldStyle.Render("ID:"), p.ID),
		fmt.Sprintf("%s %s", BoldStyle.Render("Unimed:"), p.Unimed),
		fmt.Sprintf("%s %s", BoldStyle.Render("Vidas:"), formatLives(p.Lives)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Criado em:"), p.CreatedAt),
	}
	if p.UpdatedAt != "" {
		lines = append(lines, fmt.Sprintf("%s %s", BoldStyle.Render("Atualizado em:"), p.UpdatedAt))
	}
	if p.DataRef != "" {
		lines = append(lines, fmt.Sprintf("%s %s", BoldStyle.Render("Data de referência:"), p.DataRef))
	}
	if p.Status != "" {
		lines = append(lines, fmt.Sprintf("%s %s", BoldStyle.Render("Status:"), p.Status))
	}
	if p.Description != "" {
		lines = append(lines, "", p.Description)
	}
	return RenderBox(p.Name, strings.Join(lines, "\n"))
}

// RenderRows renders up to limit rows as a table. Columns in preferred come first.
func RenderRows(rows []model.Row, preferred []string, limit int) string {
	if len(rows) == 0 {
		return SubtleStyle.Render("(sem linhas)")
	}
	cols := model.ColumnsOf(rows, preferred)
	t := newTable(cols...)
	shown := rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, r := range shown {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = model.FormatValue(r[c])
		}
		t.Row(cells...)
	}
	out := t.String()
	if len(shown) < len(rows) {
		out += "\n" + SubtleStyle.Render(fmt.Sprintf("... e mais %d linhas", len(rows)-len(shown)))
	}
	return out
}

// RenderUploadSummary renders what the backend reported about an upload.
func RenderUploadSummary(s *model.UploadSummary) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		RenderBox(fmt.Sprintf("Beneficiários (%d linhas)", s.RowsBenef), RenderRows(s.PreviewBenef, nil, 5)),
		RenderBox(fmt.Sprintf("Ficha financeira (%d linhas)", s.RowsFicha), RenderRows(s.PreviewFicha, nil, 5)),
	)
}

// knownConcepts returns the concepts the backend understands for c, in display order.
func knownConcepts(c model.Category) []string {
	if c == model.CategoryFicha {
		return model.FichaConcepts
	}
	return model.BenefConcepts
}

// RenderMapping renders a mapping with one row per concept.
func RenderMapping(m model.FinalMapping) string {
	t := newTable("Base", "Conceito", "Coluna(s)")
	for _, c := range model.Categories {
		mapping := m.Get(c)
		for _, concept := range mapping.Concepts(knownConcepts(c)) {
			t.Row(c.Label(), concept, mapping[concept].String())
		}
	}
	return t.String()
}

// RenderSuggestions renders the detected columns and the candidates per concept.
func RenderSuggestions(s *model.MappingSuggestions) string {
	t := newTable("Base", "Conceito", "Sugestões")
	for _, c := range model.Categories {
		src := s.Get(c)
		concepts := make(model.Mapping, len(src.Suggestions))
		for concept := range src.Suggestions {
			concepts[concept] = model.MappingValue{}
		}
		for _, concept := range concepts.Concepts(knownConcepts(c)) {
			t.Row(c.Label(), concept, strings.Join(src.Suggestions[concept], ", "))
		}
	}
	return t.String()
}

// RenderPreview renders a calculation preview with the join key first.
func RenderPreview(p *model.CalculationPreview, joinKey string, limit int) string {
	header := fmt.Sprintf("Referência calculada: %s", BoldStyle.Render(p.ReferenceDate.String()))
	if p.TotalRows > 0 {
		header += fmt.Sprintf(" · %d linhas no total", p.TotalRows)
	}
	var preferred []string
	if joinKey != "" {
		preferred = []string{joinKey}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, RenderRows(p.Rows, preferred, limit))
}

// RenderResults renders the dashboard headline numbers and, when given, the
// available filter values.
func RenderResults(r *model.Results, opts *model.FilterOptions) string {
	if !r.Ready() {
		msg := "Resultados ainda em processamento."
		if r.Message != "" {
			msg = r.Message
		}
		return FormatWarning(msg)
	}

	kpis := newTable("Indicador", "Valor")
	kpis.Row("Vidas", strconv.Itoa(r.KPIs.Lives))
	kpis.Row("Vidas com eventos", strconv.Itoa(r.KPIs.LivesWithEvents))
	kpis.Row("Custo total", formatMoney(r.KPIs.TotalCost))
	kpis.Row("PMPM", formatMoney(r.KPIs.PMPM))
	kpis.Row("Previsão", formatMoney(r.KPIs.Prediction))

	sections := []string{FormatTitle(ChartIcon + " Resultados · ref. " + r.Meta.RefDate), kpis.String()}
	if tr := r.Charts.Trend; tr != nil {
		sections = append(sections, fmt.Sprintf("Tendência: inclinação %.2f, intercepto %.2f, previsão %s",
			tr.Slope, tr.Intercept, formatMoney(tr.Prediction)))
	}
	if len(r.Comparative) > 0 {
		sections = append(sections, RenderBox("Comparativo", RenderRows(r.Comparative, nil, 10)))
	}
	if opts != nil {
		sections = append(sections,
			SubtitleStyle.Render("Grupos: "+joinOrDash(opts.Options.Grupos)),
			SubtitleStyle.Render("Agrupamento assistencial: "+joinOrDash(opts.Options.AgrupamentoAssistencial)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderHistory renders the projects created on this machine.
func RenderHistory(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return FormatInfo("Nenhum projeto criado nesta máquina.")
	}
	t := newTable("ID", "Nome", "Unimed", "Etapa", "Criado em", "Enviado em")
	for _, e := range entries {
		submitted := "-"
		if e.SubmittedAt != nil {
			submitted = e.SubmittedAt.Local().Format(time.DateTime)
		}
		t.Row(e.ProjectID, e.Name, e.Unimed, fmt.Sprintf("%d/4", e.LastStep),
			e.CreatedAt.Local().Format(time.DateTime), submitted)
	}
	return t.String()
}

func formatMoney(v float64) string {
	return "R$ " + strconv.FormatFloat(v, 'f', 2, 64)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
