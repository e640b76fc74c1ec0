package tui

import "github.com/Veraticus/coorte/internal/wizard"

// transitionDoneMsg reports the end of a step transition.
type transitionDoneMsg struct {
	err  error
	from wizard.Step
}

// actionKind names a wizard action independent of step transitions.
type actionKind int

const (
	actionUpload actionKind = iota
	actionSimulate
	actionExport
)

// actionDoneMsg reports the end of an upload, simulation or export.
type actionDoneMsg struct {
	err    error
	path   string
	action actionKind
}

// notificationMsg carries an orchestrator notification into the program.
type notificationMsg struct {
	message string
	level   wizard.Level
}

// navigateMsg asks the program to leave the wizard.
type navigateMsg struct {
	path string
}
