package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Next      key.Binding
	Back      key.Binding
	NextField key.Binding
	PrevField key.Binding

	// Actions
	Upload   key.Binding
	Simulate key.Binding
	Export   key.Binding
	Search   key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "avançar"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "voltar"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab/↓", "próximo campo"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab/↑", "campo anterior"),
		),

		// Actions
		Upload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("Ctrl+U", "carregar planilhas"),
		),
		Simulate: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("Ctrl+P", "simular cálculo"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("Ctrl+X", "exportar Excel"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "buscar no preview"),
		),

		// Application
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "ajuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "sair"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.NextField, k.PrevField},
		{k.Upload, k.Simulate, k.Export, k.Search},
		{k.Help, k.Quit},
	}
}
