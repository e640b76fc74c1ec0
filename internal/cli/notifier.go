package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/coorte/internal/wizard"
)

// Notifier prints wizard notifications styled by level and logs them.
type Notifier struct {
	writer io.Writer
}

// NewNotifier creates a notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{writer: w}
}

var _ wizard.Notifier = (*Notifier)(nil)

// Notify implements wizard.Notifier.
func (n *Notifier) Notify(level wizard.Level, message string) {
	slog.Debug("Wizard notification", "level", level.String(), "message", message)
	if _, err := fmt.Fprintln(n.writer, FormatLevel(level, message)); err != nil {
		slog.Warn("Failed to write notification", "error", err)
	}
}
