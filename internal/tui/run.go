package tui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/wizard"
	tea "github.com/charmbracelet/bubbletea"
)

// App connects a wizard orchestrator to a running bubbletea program. It
// implements wizard.Notifier and wizard.Navigator.
type App struct {
	program   *tea.Program
	dashboard string
	mu        sync.Mutex
}

// Ensure we implement the interfaces.
var (
	_ wizard.Notifier  = (*App)(nil)
	_ wizard.Navigator = (*App)(nil)
)

// Notify implements wizard.Notifier.
func (a *App) Notify(level wizard.Level, message string) {
	a.send(notificationMsg{level: level, message: message})
}

// Navigate implements wizard.Navigator.
func (a *App) Navigate(path string) {
	a.mu.Lock()
	a.dashboard = path
	a.mu.Unlock()
	a.send(navigateMsg{path: path})
}

// Dashboard returns where the wizard navigated to after submission.
func (a *App) Dashboard() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dashboard
}

func (a *App) send(msg tea.Msg) {
	a.mu.Lock()
	p := a.program
	a.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run runs the interactive wizard until the analysis is submitted or the user
// quits. It returns the dashboard path of the submitted project, or "" when
// the wizard was abandoned.
func Run(ctx context.Context, gw gateway.Gateway, opts ...Option) (string, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Cancel on signal so in-flight backend calls are abandoned
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{}
	wizOpts := []wizard.Option{
		wizard.WithNotifier(app),
		wizard.WithNavigator(app),
		wizard.WithRound(cfg.Round),
	}
	if cfg.Recorder != nil {
		wizOpts = append(wizOpts, wizard.WithRecorder(cfg.Recorder))
	}
	wiz := wizard.New(gw, wizOpts...)

	program := tea.NewProgram(
		newModel(ctx, cfg, wiz),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	app.mu.Lock()
	app.program = program
	app.mu.Unlock()

	if _, err := program.Run(); err != nil {
		if dashboard := app.Dashboard(); dashboard != "" {
			return dashboard, nil
		}
		return "", fmt.Errorf("failed to run TUI: %w", err)
	}
	return app.Dashboard(), nil
}
