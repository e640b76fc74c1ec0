package wizard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/Veraticus/coorte/internal/model"
)

// Upload sends both selected spreadsheets and stores the backend's row counts
// and first rows. It may be repeated; each success replaces the previous summary.
func (o *Orchestrator) Upload(ctx context.Context) error {
	o.mu.Lock()
	if err := o.uploadPreconditionsLocked(); err != nil {
		o.mu.Unlock()
		return o.warn(err)
	}
	projectID := o.projectID
	benef, ficha := o.info.Benef, o.info.Ficha
	o.actions++
	o.mu.Unlock()
	defer o.settleAction()

	summary, err := o.gw.Upload(ctx, projectID, o.round, benef, ficha)
	if err != nil {
		slog.Warn("Failed to upload spreadsheets", "project_id", projectID, "error", err)
		o.notifier.Notify(LevelError, failureMessage("Erro ao carregar planilhas.", err))
		return fmt.Errorf("failed to upload spreadsheets: %w", err)
	}

	o.mu.Lock()
	o.upload = summary
	o.uploadedBenef = benef
	o.uploadedFicha = ficha
	o.mu.Unlock()

	slog.Info("Spreadsheets uploaded",
		"project_id", projectID,
		"rows_benef", summary.RowsBenef,
		"rows_ficha", summary.RowsFicha)
	o.notifier.Notify(LevelSuccess, fmt.Sprintf("Planilhas carregadas: %d beneficiários, %d linhas de ficha.",
		summary.RowsBenef, summary.RowsFicha))
	return nil
}

// Simulate runs the calculation over the first rows with the current mapping
// and configuration. The latest response replaces any earlier preview.
func (o *Orchestrator) Simulate(ctx context.Context) error {
	o.mu.Lock()
	req, err := o.requestLocked()
	if err != nil {
		o.mu.Unlock()
		return o.warn(err)
	}
	projectID := o.projectID
	o.actions++
	o.mu.Unlock()
	defer o.settleAction()

	preview, err := o.gw.PreviewAnalysis(ctx, projectID, o.round, req)
	if err != nil {
		slog.Warn("Failed to simulate calculation", "project_id", projectID, "error", err)
		o.notifier.Notify(LevelError, failureMessage("Erro ao simular cálculo.", err))
		return fmt.Errorf("failed to simulate calculation: %w", err)
	}

	o.mu.Lock()
	o.preview = preview
	o.mu.Unlock()

	slog.Info("Calculation simulated",
		"project_id", projectID,
		"rows", len(preview.Rows),
		"ref_calculada", preview.ReferenceDate)
	o.notifier.Notify(LevelSuccess, "Cálculo simulado com sucesso!")
	return nil
}

// Export writes the fully calculated spreadsheet to w. It does not depend on
// Simulate having run.
func (o *Orchestrator) Export(ctx context.Context, w io.Writer) (int64, error) {
	o.mu.Lock()
	req, err := o.requestLocked()
	if err != nil {
		o.mu.Unlock()
		return 0, o.warn(err)
	}
	projectID := o.projectID
	o.actions++
	o.mu.Unlock()
	defer o.settleAction()

	o.notifier.Notify(LevelInfo, "Gerando Excel completo (isso pode levar alguns segundos)...")
	n, err := o.gw.DownloadPreview(ctx, projectID, o.round, req, w)
	if err != nil {
		slog.Warn("Failed to export spreadsheet", "project_id", projectID, "error", err)
		o.notifier.Notify(LevelError, failureMessage("Erro ao gerar Excel.", err))
		return n, fmt.Errorf("failed to export spreadsheet: %w", err)
	}

	slog.Info("Spreadsheet exported", "project_id", projectID, "bytes", n)
	o.notifier.Notify(LevelSuccess, "Download concluído!")
	return n, nil
}

// ExportFile exports the spreadsheet to path. A directory path receives the
// default file name. Nothing is left behind on failure.
func (o *Orchestrator) ExportFile(ctx context.Context, path string) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, model.DefaultExportName)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := o.Export(ctx, tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}
	return path, nil
}

// SearchPreview filters the stored calculation preview. The stored rows are
// never modified; an empty query returns all of them.
func (o *Orchestrator) SearchPreview(query string) []model.Row {
	o.mu.Lock()
	var rows []model.Row
	if o.preview != nil {
		rows = slices.Clone(o.preview.Rows)
	}
	o.mu.Unlock()
	return model.FilterRows(rows, query)
}

func (o *Orchestrator) settleAction() {
	o.mu.Lock()
	o.actions--
	o.mu.Unlock()
}
