package tui

import (
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/tui/themes"
	"github.com/Veraticus/coorte/internal/wizard"
)

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Recorder  wizard.Recorder
	Round     string
	ExportDir string
	Width     int
	Height    int
	ShowHelp  bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Round:     model.DefaultRound,
		ExportDir: ".",
		Width:     100,
		Height:    30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithRecorder records the projects the wizard creates.
func WithRecorder(r wizard.Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}

// WithRound sets the data round.
func WithRound(round string) Option {
	return func(c *Config) {
		c.Round = round
	}
}

// WithExportDir sets where exported spreadsheets are saved.
func WithExportDir(dir string) Option {
	return func(c *Config) {
		c.ExportDir = dir
	}
}

// WithHelp starts with the full key help expanded.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}
