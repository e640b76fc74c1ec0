// Package themes holds the color palettes of the wizard TUI.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Label         lipgloss.Style
	Hint          lipgloss.Style
	FocusedLabel  lipgloss.Style
	StepActive    lipgloss.Style
	StepDone      lipgloss.Style
	StepPending   lipgloss.Style
	RoundedBox    lipgloss.Style
	BorderedBox   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

// Default is the default theme.
var Default = newTheme(palette{
	primary:   "#10b981",
	secondary: "#6ee7b7",
	text:      "#fafafa",
	subtle:    "#a3a3a3",
	muted:     "#737373",
	border:    "#404040",
	info:      "#3b82f6",
	success:   "#10b981",
	warning:   "#f59e0b",
	errorC:    "#ef4444",
})

// Light suits terminals with a light background.
var Light = newTheme(palette{
	primary:   "#047857",
	secondary: "#059669",
	text:      "#171717",
	subtle:    "#525252",
	muted:     "#737373",
	border:    "#d4d4d4",
	info:      "#1d4ed8",
	success:   "#047857",
	warning:   "#b45309",
	errorC:    "#b91c1c",
})

// ByName returns the theme with the given name, falling back to Default.
func ByName(name string) Theme {
	if name == "light" {
		return Light
	}
	return Default
}

type palette struct {
	primary, secondary, text, subtle, muted, border string
	info, success, warning, errorC                  string
}

func newTheme(p palette) Theme {
	return Theme{
		Primary: lipgloss.Color(p.primary),
		Muted:   lipgloss.Color(p.muted),
		Border:  lipgloss.Color(p.border),

		// Text styles
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.text)).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.text)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.text)),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.subtle)).
			Width(22),
		FocusedLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.primary)).
			Bold(true).
			Width(22),
		Hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)).
			Italic(true),

		// Step indicator
		StepActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.primary)).
			Bold(true),
		StepDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.secondary)),
		StepPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)),

		// Component styles
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			Padding(0, 1),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			Padding(1, 2),
		TableHeader: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			BorderBottom(true).
			Bold(true),
		TableSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.text)).
			Background(lipgloss.Color(p.primary)),

		// Status styles
		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.errorC)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.info)).
			Bold(true),
	}
}
