// Package storage provides the local persistence layer for coorte.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/coorte/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidViewMode = errors.New("invalid view mode")
	ErrInvalidHistory  = errors.New("invalid history entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateHistoryEntry validates a project history entry.
func validateHistoryEntry(entry model.HistoryEntry) error {
	if strings.TrimSpace(entry.ProjectID) == "" {
		return fmt.Errorf("%w: missing project ID", ErrInvalidHistory)
	}
	if entry.LastStep < 1 || entry.LastStep > 4 {
		return fmt.Errorf("%w: step %d out of range", ErrInvalidHistory, entry.LastStep)
	}
	return nil
}
