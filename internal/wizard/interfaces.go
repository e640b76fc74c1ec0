// Package wizard drives the four-step project creation wizard against the
// analysis backend: basic info, upload, column mapping and configuration.
package wizard

import (
	"context"

	"github.com/Veraticus/coorte/internal/model"
)

// Level is the severity of a user notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Navigator leaves the wizard for another screen.
type Navigator interface {
	Navigate(path string)
}

// Recorder keeps a local history of projects created through the wizard.
type Recorder interface {
	RecordProject(ctx context.Context, entry model.HistoryEntry) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}
