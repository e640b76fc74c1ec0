// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/coorte/internal/model"
)

// Storage defines the contract for our local persistence layer.
type Storage interface {
	// Preference operations
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
	GetViewMode(ctx context.Context) (model.ViewMode, error)
	SetViewMode(ctx context.Context, mode model.ViewMode) error

	// Project history operations
	RecordProject(ctx context.Context, entry model.HistoryEntry) error
	GetHistory(ctx context.Context, projectID string) (*model.HistoryEntry, error)
	ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	DeleteHistory(ctx context.Context, projectID string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for polling operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
