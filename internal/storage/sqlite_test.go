package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.Storage = (*SQLiteStorage)(nil)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestNewSQLiteStorage_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "coorte.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
}

func TestPreferences(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetPreference(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.SetPreference(ctx, "theme", "dark"))
	require.NoError(t, store.SetPreference(ctx, "theme", "light"))

	value, err := store.GetPreference(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)

	assert.ErrorIs(t, store.SetPreference(ctx, "", "x"), ErrEmptyString)
}

func TestViewMode(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		set     model.ViewMode
		want    model.ViewMode
		wantErr bool
	}{
		{name: "default is grid", want: model.ViewGrid},
		{name: "list", set: model.ViewList, want: model.ViewList},
		{name: "grid", set: model.ViewGrid, want: model.ViewGrid},
		{name: "invalid is rejected", set: "cards", want: model.ViewGrid, wantErr: true},
		{name: "corrupt stored value falls back", stored: "tiles", want: model.ViewGrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			if tt.stored != "" {
				require.NoError(t, store.SetPreference(ctx, prefViewMode, tt.stored))
			}
			if tt.set != "" {
				err := store.SetViewMode(ctx, tt.set)
				if tt.wantErr {
					assert.ErrorIs(t, err, ErrInvalidViewMode)
				} else {
					require.NoError(t, err)
				}
			}

			got, err := store.GetViewMode(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordProject(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created := time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
	require.NoError(t, store.RecordProject(ctx, model.HistoryEntry{
		ProjectID: "p1",
		Name:      "Carteira Ouro 2024",
		Unimed:    "001",
		LastStep:  2,
		CreatedAt: created,
	}))

	got, err := store.GetHistory(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Carteira Ouro 2024", got.Name)
	assert.Equal(t, "001", got.Unimed)
	assert.Equal(t, 2, got.LastStep)
	assert.True(t, created.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)
	assert.Nil(t, got.SubmittedAt)

	submitted := created.Add(time.Hour)
	require.NoError(t, store.RecordProject(ctx, model.HistoryEntry{
		ProjectID:   "p1",
		Name:        "Carteira Ouro 2024",
		Unimed:      "001",
		LastStep:    4,
		CreatedAt:   created.Add(48 * time.Hour),
		SubmittedAt: &submitted,
	}))

	// a later entry without submission keeps the stored one
	require.NoError(t, store.RecordProject(ctx, model.HistoryEntry{
		ProjectID: "p1",
		Name:      "Carteira Ouro 2024",
		Unimed:    "001",
		LastStep:  3,
	}))

	got, err = store.GetHistory(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.LastStep)
	assert.True(t, created.Equal(got.CreatedAt), "created_at must not change")
	require.NotNil(t, got.SubmittedAt)
	assert.True(t, submitted.Equal(*got.SubmittedAt))
}

func TestRecordProject_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name  string
		entry model.HistoryEntry
	}{
		{name: "missing project", entry: model.HistoryEntry{LastStep: 1}},
		{name: "step too low", entry: model.HistoryEntry{ProjectID: "p1"}},
		{name: "step too high", entry: model.HistoryEntry{ProjectID: "p1", LastStep: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.RecordProject(ctx, tt.entry), ErrInvalidHistory)
		})
	}
}

func TestListHistory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, store.RecordProject(ctx, model.HistoryEntry{
			ProjectID: id,
			Name:      "Projeto " + id,
			LastStep:  1,
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	all, err := store.ListHistory(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, e := range all {
		ids = append(ids, e.ProjectID)
	}
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids)

	limited, err := store.ListHistory(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDeleteHistory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.RecordProject(ctx, model.HistoryEntry{ProjectID: "p1", Name: "x", LastStep: 1}))
	require.NoError(t, store.DeleteHistory(ctx, "p1"))

	_, err := store.GetHistory(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// deleting twice is not an error
	assert.NoError(t, store.DeleteHistory(ctx, "p1"))
}

func TestNilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // testing nil context handling
	_, err := store.GetViewMode(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}
