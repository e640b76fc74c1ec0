package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
)

// RecordProject inserts or updates a project's history. A submission time,
// once stored, is kept when later entries carry none.
func (s *SQLiteStorage) RecordProject(ctx context.Context, entry model.HistoryEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateHistoryEntry(entry); err != nil {
		return err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var submittedAt sql.NullTime
	if entry.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: entry.SubmittedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_history (project_id, name, unimed, last_step, created_at, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_id) DO UPDATE SET
			name = excluded.name,
			unimed = excluded.unimed,
			last_step = excluded.last_step,
			submitted_at = COALESCE(excluded.submitted_at, project_history.submitted_at),
			updated_at = CURRENT_TIMESTAMP
	`, entry.ProjectID, entry.Name, entry.Unimed, entry.LastStep, createdAt.UTC(), submittedAt)
	if err != nil {
		return fmt.Errorf("failed to record project %s: %w", entry.ProjectID, err)
	}
	return nil
}

// GetHistory returns the history of one project, or common.ErrNotFound.
func (s *SQLiteStorage) GetHistory(ctx context.Context, projectID string) (*model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, name, unimed, last_step, created_at, submitted_at
		FROM project_history WHERE project_id = ?
	`, projectID)

	entry, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", projectID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project history: %w", err)
	}
	return entry, nil
}

// ListHistory returns the most recently created projects first. A limit of
// zero returns every entry.
func (s *SQLiteStorage) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, name, unimed, last_step, created_at, submitted_at
		FROM project_history
		ORDER BY created_at DESC, project_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query project history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project history: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project history: %w", err)
	}
	return entries, nil
}

// DeleteHistory forgets a project.
func (s *SQLiteStorage) DeleteHistory(ctx context.Context, projectID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM project_history WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete project history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*model.HistoryEntry, error) {
	var (
		entry       model.HistoryEntry
		submittedAt sql.NullTime
	)
	if err := row.Scan(
		&entry.ProjectID,
		&entry.Name,
		&entry.Unimed,
		&entry.LastStep,
		&entry.CreatedAt,
		&submittedAt,
	); err != nil {
		return nil, err
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		entry.SubmittedAt = &t
	}
	return &entry, nil
}
