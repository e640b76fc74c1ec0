package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/coorte/internal/model"
	"github.com/google/uuid"
)

const (
	maxErrorBody    = 64 << 10
	spreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Client implements Gateway over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	progress   io.Writer
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProgress renders upload and download progress bars on w.
func WithProgress(w io.Writer) Option {
	return func(c *Client) {
		c.progress = w
	}
}

// NewClient creates a backend client from cfg.
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("gateway config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend URL: %w", err)
	}

	c := &Client{
		baseURL: base,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListProjects returns the project catalog.
func (c *Client) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	var projects []model.ProjectSummary
	if err := c.doJSON(ctx, "list projects", http.MethodGet, c.endpoint(nil, "projects"), nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns the metadata of one project.
func (c *Client) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project
	if err := c.doJSON(ctx, "get project", http.MethodGet, c.endpoint(nil, "projects", projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a remote project and returns its id.
func (c *Client) CreateProject(ctx context.Context, p model.NewProject) (string, error) {
	const op = "create project"

	var resp struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.doJSON(ctx, op, http.MethodPost, c.endpoint(nil, "projects", "create"), p, &resp); err != nil {
		return "", err
	}
	if resp.ProjectID == "" {
		return "", &Error{Op: op, Kind: KindDecode, Detail: "response has no project_id"}
	}
	return resp.ProjectID, nil
}

// DeleteProject removes a project and its files.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.doJSON(ctx, "delete project", http.MethodDelete, c.endpoint(nil, "projects", projectID), nil, nil)
}

// Suggestions fetches the column mapping suggestions for the uploaded spreadsheets.
func (c *Client) Suggestions(ctx context.Context, projectID, roundID string) (*model.MappingSuggestions, error) {
	var s model.MappingSuggestions
	if err := c.doJSON(ctx, "fetch suggestions", http.MethodGet, c.endpoint(nil, "mapping", "suggestions", projectID, roundID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PreviewAnalysis simulates the calculation over the first rows.
func (c *Client) PreviewAnalysis(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.CalculationPreview, error) {
	var p model.CalculationPreview
	if err := c.doJSON(ctx, "preview analysis", http.MethodPost, c.endpoint(nil, "analysis", "preview", projectID, roundID), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DownloadPreview streams the fully calculated spreadsheet into w.
func (c *Client) DownloadPreview(ctx context.Context, projectID, roundID string, req model.AnalysisRequest, w io.Writer) (int64, error) {
	const op = "download preview"

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, c.endpoint(nil, "analysis", "download_preview", projectID, roundID),
		bytes.NewReader(body), "application/json", spreadsheetMIME)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	dst := w
	if c.progress != nil {
		bar := newProgressBar(c.progress, resp.ContentLength, "Baixando planilha")
		defer func() { _ = bar.Finish() }()
		dst = io.MultiWriter(w, progressWriter{bar: bar})
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	return n, nil
}

// RunAnalysis runs the full pipeline for the round.
func (c *Client) RunAnalysis(ctx context.Context, projectID, roundID string, req model.AnalysisRequest) (*model.RunStatus, error) {
	var status model.RunStatus
	if err := c.doJSON(ctx, "run analysis", http.MethodPost, c.endpoint(nil, "analysis", "run", projectID, roundID), req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Results fetches the dashboard payload with the given filters.
func (c *Client) Results(ctx context.Context, projectID, roundID string, q model.ResultsQuery) (*model.Results, error) {
	var r model.Results
	if err := c.doJSON(ctx, "fetch results", http.MethodGet, c.endpoint(q.Values(), "analysis", "results", projectID, roundID), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// FilterOptions fetches the values available to the dashboard filters.
func (c *Client) FilterOptions(ctx context.Context, projectID, roundID string) (*model.FilterOptions, error) {
	var o model.FilterOptions
	if err := c.doJSON(ctx, "fetch filter options", http.MethodGet, c.endpoint(nil, "analysis", "filter-options", projectID, roundID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON sends in as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, op, method, endpoint, body, contentType, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(op, resp, out)
}

// decode reads a JSON response body into out, or drains it when out is nil.
func decode(op string, resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Err: err, RequestID: resp.Request.Header.Get("X-Request-ID")}
	}
	return nil
}

// do sends a request and classifies every failure. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op, method, endpoint string, body io.Reader, contentType, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Backend request failed",
			"op", op,
			"method", method,
			"url", endpoint,
			"request_id", requestID,
			"error", err)
		return nil, &Error{Op: op, Kind: KindNetwork, Err: err, RequestID: requestID}
	}

	slog.Debug("Backend request",
		"op", op,
		"method", method,
		"url", endpoint,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Op:        op,
			Kind:      kindForStatus(resp.StatusCode),
			Status:    resp.StatusCode,
			Detail:    parseDetail(data),
			RequestID: requestID,
		}
	}

	return resp, nil
}
