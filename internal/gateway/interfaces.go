// Package gateway is the typed client of the analysis backend.
package gateway

import (
	"context"
	"io"

	"github.com/Veraticus/coorte/internal/model"
)

// Gateway defines the contract with the analysis backend.
// This interface allows for easy mocking in tests and swapping transports.
type Gateway interface {
	// Project catalog
	ListProjects(ctx context.Context) ([]model.ProjectSummary, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	CreateProject(ctx context.Context, p model.NewProject) (string, error)
	DeleteProject(ctx context.Context, projectID string) error

	// Wizard
	Upload(ctx context.Context, projectID, roundID string, benef, ficha model.SourceFile) (*model.UploadSummary, error)
	Suggestions(ctx context.Context, projectID, roundID string) (*model.MappingSuggestions, error)
	PreviewAnalysis(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.CalculationPreview, error)
	DownloadPreview(ctx context.Context, projectID, roundID string, req model.AnalysisRequest, w io.Writer) (int64, error)
	RunAnalysis(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.RunStatus, error)

	// Dashboard
	Results(ctx context.Context, projectID, roundID string, q model.ResultsQuery) (*model.Results, error)
	FilterOptions(ctx context.Context, projectID, roundID string) (*model.FilterOptions, error)
}
