package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
)

const prefViewMode = "projects.view_mode"

// GetPreference returns a stored preference, or common.ErrNotFound.
func (s *SQLiteStorage) GetPreference(ctx context.Context, key string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(key, "key"); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	return value, nil
}

// SetPreference stores a preference, replacing any previous value.
func (s *SQLiteStorage) SetPreference(ctx context.Context, key, value string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// GetViewMode returns the project catalog layout, grid when never set.
func (s *SQLiteStorage) GetViewMode(ctx context.Context) (model.ViewMode, error) {
	value, err := s.GetPreference(ctx, prefViewMode)
	if errors.Is(err, common.ErrNotFound) {
		return model.ViewGrid, nil
	}
	if err != nil {
		return "", err
	}

	mode := model.ViewMode(value)
	if !mode.Valid() {
		return model.ViewGrid, nil
	}
	return mode, nil
}

// SetViewMode stores the project catalog layout.
func (s *SQLiteStorage) SetViewMode(ctx context.Context, mode model.ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidViewMode, mode)
	}
	return s.SetPreference(ctx, prefViewMode, string(mode))
}
