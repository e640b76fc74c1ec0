// Package tui implements the interactive project wizard on top of bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/tui/themes"
	"github.com/Veraticus/coorte/internal/wizard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// field is one editable value of the current step.
type field struct {
	apply func(w *wizard.Orchestrator, value string) error
	label string
	hint  string
	input textinput.Model
}

// Model holds the main TUI state.
type Model struct {
	ctx       context.Context
	fieldErr  error
	wiz       *wizard.Orchestrator
	theme     themes.Theme
	status    notificationMsg
	dashboard string
	fields    []field
	config    Config
	keymap    KeyMap
	search    textinput.Model
	spinner   spinner.Model
	help      help.Model
	table     table.Model
	width     int
	height    int
	focus     int
	step      wizard.Step
	searching bool
	quitting  bool
}

// newModel creates a new model driving wiz.
func newModel(ctx context.Context, cfg Config, wiz *wizard.Orchestrator) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = s.Style.Foreground(cfg.Theme.Primary)

	search := textinput.New()
	search.Placeholder = "buscar em todas as colunas"
	search.Prompt = "/ "

	t := table.New(
		table.WithFocused(false),
		table.WithHeight(8),
	)
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.TableHeader
	styles.Selected = cfg.Theme.TableSelected
	t.SetStyles(styles)

	h := help.New()
	h.ShowAll = cfg.ShowHelp

	m := Model{
		ctx:     ctx,
		wiz:     wiz,
		config:  cfg,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		spinner: s,
		search:  search,
		table:   t,
		help:    h,
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.syncStep()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if len(m.fields) > 0 {
		cmds = append(cmds, m.fields[m.focus].input.Focus())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.refreshTable()
		return m, nil

	case spinner.TickMsg:
		if !m.wiz.Busy() && !m.wiz.ActionBusy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case notificationMsg:
		m.status = msg
		return m, nil

	case navigateMsg:
		m.dashboard = msg.path
		m.quitting = true
		return m, tea.Quit

	case transitionDoneMsg:
		return m, m.syncStep()

	case actionDoneMsg:
		if msg.err == nil {
			switch msg.action {
			case actionSimulate:
				m.refreshTable()
			case actionExport:
				m.status = notificationMsg{level: wizard.LevelSuccess, message: "Planilha salva em " + msg.path}
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// handleKey routes a key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keymap.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.searching {
		switch {
		case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Next):
			m.searching = false
			m.search.Blur()
			return m, m.focusField()
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.refreshTable()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Next):
		if err := m.commit(); err != nil {
			return m, nil
		}
		return m, tea.Batch(m.next(), m.spinner.Tick)

	case key.Matches(msg, m.keymap.Back):
		_ = m.commit()
		if err := m.wiz.Back(); err != nil {
			return m, nil
		}
		return m, m.syncStep()

	case key.Matches(msg, m.keymap.NextField):
		return m, m.moveFocus(1)

	case key.Matches(msg, m.keymap.PrevField):
		return m, m.moveFocus(-1)

	case key.Matches(msg, m.keymap.Upload):
		if err := m.commit(); err != nil {
			return m, nil
		}
		return m, tea.Batch(m.upload(), m.spinner.Tick)

	case key.Matches(msg, m.keymap.Simulate):
		if err := m.commit(); err != nil {
			return m, nil
		}
		return m, tea.Batch(m.simulate(), m.spinner.Tick)

	case key.Matches(msg, m.keymap.Export):
		if err := m.commit(); err != nil {
			return m, nil
		}
		return m, tea.Batch(m.export(), m.spinner.Tick)

	case key.Matches(msg, m.keymap.Search) && m.step == wizard.StepConfiguration && m.hasPreview():
		m.searching = true
		m.blurFields()
		return m, m.search.Focus()
	}

	return m.updateFocused(msg)
}

// updateFocused forwards a message to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.fields) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderWizard()
}

// Dashboard returns the path the wizard navigated to, empty if it was abandoned.
func (m Model) Dashboard() string {
	return m.dashboard
}

var errInvalidInput = errors.New("invalid input")

// commit applies every field of the current step to the orchestrator.
func (m *Model) commit() error {
	m.fieldErr = nil
	for _, f := range m.fields {
		if err := f.apply(m.wiz, f.input.Value()); err != nil {
			m.fieldErr = fmt.Errorf("%s: %w", f.label, err)
			return fmt.Errorf("%w: %w", errInvalidInput, err)
		}
	}
	return nil
}

// syncStep rebuilds the fields when the orchestrator moved to another step.
func (m *Model) syncStep() tea.Cmd {
	step := m.wiz.Step()
	if step == m.step && m.fields != nil {
		return nil
	}
	m.step = step
	m.fields = buildFields(m.wiz.Snapshot())
	m.focus = 0
	m.searching = false
	m.search.Blur()
	m.refreshTable()
	return m.focusField()
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	_ = m.commit()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	return m.focusField()
}

func (m *Model) focusField() tea.Cmd {
	m.blurFields()
	if len(m.fields) == 0 {
		return nil
	}
	return m.fields[m.focus].input.Focus()
}

func (m *Model) blurFields() {
	for i := range m.fields {
		m.fields[i].input.Blur()
	}
}

func (m Model) hasPreview() bool {
	return m.wiz.Snapshot().Preview != nil
}

// refreshTable loads the searched preview rows into the table.
func (m *Model) refreshTable() {
	snap := m.wiz.Snapshot()
	if snap.Preview == nil {
		m.table.SetRows(nil)
		m.table.SetColumns(nil)
		return
	}

	rows := m.wiz.SearchPreview(m.search.Value())
	cols := model.ColumnsOf(snap.Preview.Rows, []string{snap.Config.BenefID})

	const colWidth = 14
	maxCols := max(1, (m.width-4)/(colWidth+2))
	if len(cols) > maxCols {
		cols = cols[:maxCols]
	}

	columns := make([]table.Column, len(cols))
	for i, c := range cols {
		columns[i] = table.Column{Title: c, Width: colWidth}
	}
	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		row := make(table.Row, len(cols))
		for j, c := range cols {
			row[j] = model.FormatValue(r[c])
		}
		tableRows[i] = row
	}

	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(tableRows)
	m.table.SetHeight(min(len(tableRows)+1, max(3, m.height-22)))
}

// buildFields returns the editable values of the snapshot's step.
func buildFields(snap wizard.Snapshot) []field {
	switch snap.Step {
	case wizard.StepBasicInfo:
		return []field{
			newField("Nome do projeto", snap.Info.Name, "obrigatório", func(w *wizard.Orchestrator, v string) error {
				w.SetName(v)
				return nil
			}),
			newField("Unimed", snap.Info.Unimed, "código da cooperativa", func(w *wizard.Orchestrator, v string) error {
				w.SetUnimed(v)
				return nil
			}),
			newField("Descrição", snap.Info.Description, "", func(w *wizard.Orchestrator, v string) error {
				w.SetDescription(v)
				return nil
			}),
		}

	case wizard.StepUpload:
		return []field{
			newField("Beneficiários", snap.Info.Benef.Path, ".csv, .xlsx ou .xls", fileApplier((*wizard.Orchestrator).SetBenefFile)),
			newField("Ficha financeira", snap.Info.Ficha.Path, ".csv, .xlsx ou .xls", fileApplier((*wizard.Orchestrator).SetFichaFile)),
		}

	case wizard.StepMapping:
		var fields []field
		for _, c := range model.Categories {
			known := model.BenefConcepts
			if c == model.CategoryFicha {
				known = model.FichaConcepts
			}
			mapping := snap.Mapping.Get(c)
			suggestions := suggestionsOf(snap, c)
			for _, concept := range mapping.Concepts(known) {
				fields = append(fields, mappingField(c, concept, mapping[concept], suggestions[concept]))
			}
		}
		return fields

	default:
		return []field{
			newField("Data de referência", snap.Config.UltimaCompRef.String(), "AAAA-MM-DD, última competência", func(w *wizard.Orchestrator, v string) error {
				var d model.Date
				if err := d.UnmarshalText([]byte(v)); err != nil {
					return err
				}
				w.SetReferenceDate(d)
				return nil
			}),
			newField("ID beneficiários", snap.Config.BenefID, candidatesHint(snap.Mapping.Benef.Identifiers()), func(w *wizard.Orchestrator, v string) error {
				w.SetBenefID(strings.TrimSpace(v))
				return nil
			}),
			newField("ID ficha", snap.Config.FichaID, candidatesHint(snap.Mapping.Ficha.Identifiers()), func(w *wizard.Orchestrator, v string) error {
				w.SetFichaID(strings.TrimSpace(v))
				return nil
			}),
		}
	}
}

func newField(label, value, hint string, apply func(*wizard.Orchestrator, string) error) field {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = hint
	in.CharLimit = 512
	in.Width = 48
	in.SetValue(value)
	return field{label: label, hint: hint, input: in, apply: apply}
}

// fileApplier opens a spreadsheet path and hands it to set. An empty path clears the selection.
func fileApplier(set func(*wizard.Orchestrator, model.SourceFile)) func(*wizard.Orchestrator, string) error {
	return func(w *wizard.Orchestrator, v string) error {
		path := strings.TrimSpace(v)
		if path == "" {
			set(w, model.SourceFile{})
			return nil
		}
		f, err := model.OpenSourceFile(path)
		if err != nil {
			return err
		}
		set(w, f)
		return nil
	}
}

func mappingField(c model.Category, concept string, current model.MappingValue, candidates model.Candidates) field {
	label := fmt.Sprintf("%s · %s", shortLabel(c), concept)
	value := current.Scalar
	if concept == model.ConceptIdentifier {
		value = strings.Join(current.Values(), ", ")
	}
	return newField(label, value, candidatesHint(candidates), func(w *wizard.Orchestrator, v string) error {
		if concept == model.ConceptIdentifier {
			w.SetMappingValue(c, concept, model.Identifier(splitList(v)...))
			return nil
		}
		w.SetMappingValue(c, concept, model.Scalar(strings.TrimSpace(v)))
		return nil
	})
}

func suggestionsOf(snap wizard.Snapshot, c model.Category) model.ConceptSuggestions {
	if snap.Suggestions == nil {
		return nil
	}
	return snap.Suggestions.Get(c).Suggestions
}

func shortLabel(c model.Category) string {
	if c == model.CategoryFicha {
		return "Ficha"
	}
	return "Benef"
}

func candidatesHint(cands []string) string {
	if len(cands) == 0 {
		return ""
	}
	return "sugestões: " + strings.Join(cands, ", ")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
