package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/coorte/internal/config"
	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/service"
	"github.com/Veraticus/coorte/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newGateway builds the backend client. Tests replace it with a mock.
var newGateway = func(cmd *cobra.Command) (gateway.Gateway, error) {
	cfg, err := config.LoadBackendConfig()
	if err != nil {
		return nil, err
	}
	return gateway.NewClient(cfg, gateway.WithProgress(cmd.ErrOrStderr()))
}

// initStorage opens the local database and applies pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// round returns the configured data round.
func round() string {
	return viper.GetString("backend.round")
}

func printLn(w io.Writer, s string) {
	if _, err := fmt.Fprintln(w, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
