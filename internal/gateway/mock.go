package gateway

import (
	"context"
	"io"
	"sync"

	"github.com/Veraticus/coorte/internal/model"
)

// MockGateway is a mock implementation of Gateway for testing.
// Unset functions return empty successful responses.
type MockGateway struct {
	// Functions that can be set by tests to control behavior
	ListProjectsFn    func(ctx context.Context) ([]model.ProjectSummary, error)
	GetProjectFn      func(ctx context.Context, projectID string) (*model.Project, error)
	CreateProjectFn   func(ctx context.Context, p model.NewProject) (string, error)
	DeleteProjectFn   func(ctx context.Context, projectID string) error
	UploadFn          func(ctx context.Context, projectID, roundID string, benef, ficha model.SourceFile) (*model.UploadSummary, error)
	SuggestionsFn     func(ctx context.Context, projectID, roundID string) (*model.MappingSuggestions, error)
	PreviewAnalysisFn func(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.CalculationPreview, error)
	DownloadPreviewFn func(ctx context.Context, projectID, roundID string, req model.AnalysisRequest, w io.Writer) (int64, error)
	RunAnalysisFn     func(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.RunStatus, error)
	ResultsFn         func(ctx context.Context, projectID, roundID string, q model.ResultsQuery) (*model.Results, error)
	FilterOptionsFn   func(ctx context.Context, projectID, roundID string) (*model.FilterOptions, error)

	// Call tracking
	CreateProjectCalls []model.NewProject
	UploadCalls        []UploadCall
	SuggestionsCalls   []string
	AnalysisRequests   []AnalysisCall
	DeleteProjectCalls []string
	ResultsCalls       []model.ResultsQuery
	ListProjectsCalls  int
	GetProjectCalls    int
	FilterOptionsCalls int

	mu sync.Mutex
}

// UploadCall records the parameters of an Upload call.
type UploadCall struct {
	ProjectID string
	RoundID   string
	Benef     model.SourceFile
	Ficha     model.SourceFile
}

// AnalysisCall records a preview, download or run request.
type AnalysisCall struct {
	Endpoint  string
	ProjectID string
	RoundID   string
	Request   model.AnalysisRequest
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// ListProjects implements Gateway.ListProjects.
func (m *MockGateway) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	m.mu.Lock()
	m.ListProjectsCalls++
	fn := m.ListProjectsFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return []model.ProjectSummary{}, nil
}

// GetProject implements Gateway.GetProject.
func (m *MockGateway) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	m.mu.Lock()
	m.GetProjectCalls++
	fn := m.GetProjectFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID)
	}
	return &model.Project{ProjectSummary: model.ProjectSummary{ID: projectID}}, nil
}

// CreateProject implements Gateway.CreateProject.
func (m *MockGateway) CreateProject(ctx context.Context, p model.NewProject) (string, error) {
	m.mu.Lock()
	m.CreateProjectCalls = append(m.CreateProjectCalls, p)
	fn := m.CreateProjectFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, p)
	}
	return "p1", nil
}

// DeleteProject implements Gateway.DeleteProject.
func (m *MockGateway) DeleteProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	m.DeleteProjectCalls = append(m.DeleteProjectCalls, projectID)
	fn := m.DeleteProjectFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID)
	}
	return nil
}

// Upload implements Gateway.Upload.
func (m *MockGateway) Upload(ctx context.Context, projectID, roundID string, benef, ficha model.SourceFile) (*model.UploadSummary, error) {
	m.mu.Lock()
	m.UploadCalls = append(m.UploadCalls, UploadCall{ProjectID: projectID, RoundID: roundID, Benef: benef, Ficha: ficha})
	fn := m.UploadFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID, benef, ficha)
	}
	return &model.UploadSummary{Status: "success"}, nil
}

// Suggestions implements Gateway.Suggestions.
func (m *MockGateway) Suggestions(ctx context.Context, projectID, roundID string) (*model.MappingSuggestions, error) {
	m.mu.Lock()
	m.SuggestionsCalls = append(m.SuggestionsCalls, projectID)
	fn := m.SuggestionsFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID)
	}
	return &model.MappingSuggestions{}, nil
}

// PreviewAnalysis implements Gateway.PreviewAnalysis.
func (m *MockGateway) PreviewAnalysis(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.CalculationPreview, error) {
	m.mu.Lock()
	m.recordAnalysis("preview", projectID, roundID, req)
	fn := m.PreviewAnalysisFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID, req)
	}
	return &model.CalculationPreview{Rows: []model.Row{}}, nil
}

// DownloadPreview implements Gateway.DownloadPreview.
func (m *MockGateway) DownloadPreview(ctx context.Context, projectID, roundID string, req model.AnalysisRequest, w io.Writer) (int64, error) {
	m.mu.Lock()
	m.recordAnalysis("download", projectID, roundID, req)
	fn := m.DownloadPreviewFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID, req, w)
	}
	return 0, nil
}

// RunAnalysis implements Gateway.RunAnalysis.
func (m *MockGateway) RunAnalysis(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.RunStatus, error) {
	m.mu.Lock()
	m.recordAnalysis("run", projectID, roundID, req)
	fn := m.RunAnalysisFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID, req)
	}
	return &model.RunStatus{Status: "success"}, nil
}

// Results implements Gateway.Results.
func (m *MockGateway) Results(ctx context.Context, projectID, roundID string, q model.ResultsQuery) (*model.Results, error) {
	m.mu.Lock()
	m.ResultsCalls = append(m.ResultsCalls, q)
	fn := m.ResultsFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID, q)
	}
	return &model.Results{Status: "success"}, nil
}

// FilterOptions implements Gateway.FilterOptions.
func (m *MockGateway) FilterOptions(ctx context.Context, projectID, roundID string) (*model.FilterOptions, error) {
	m.mu.Lock()
	m.FilterOptionsCalls++
	fn := m.FilterOptionsFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, projectID, roundID)
	}
	return &model.FilterOptions{Status: "success"}, nil
}

// Requests returns the recorded analysis requests sent to one endpoint.
func (m *MockGateway) Requests(endpoint string) []model.AnalysisRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.AnalysisRequest
	for _, call := range m.AnalysisRequests {
		if call.Endpoint == endpoint {
			out = append(out, call.Request)
		}
	}
	return out
}

// CallCount returns how many gateway calls were made, excluding catalog reads.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CreateProjectCalls) + len(m.UploadCalls) + len(m.SuggestionsCalls) + len(m.AnalysisRequests)
}

// recordAnalysis must be called with m.mu held.
func (m *MockGateway) recordAnalysis(endpoint, projectID, roundID string, req model.AnalysisRequest) {
	m.AnalysisRequests = append(m.AnalysisRequests, AnalysisCall{
		Endpoint:  endpoint,
		ProjectID: projectID,
		RoundID:   roundID,
		Request:   req,
	})
}

// Ensure MockGateway implements Gateway interface.
var _ Gateway = (*MockGateway)(nil)

// Ensure Client implements Gateway interface.
var _ Gateway = (*Client)(nil)
