package model

import "time"

// DefaultRound is the ingestion round every wizard run targets.
const DefaultRound = "R1"

// NewProject is the payload that creates a remote project.
type NewProject struct {
	Name   string `json:"name"`
	Unimed string `json:"unimed"`
}

// ProjectSummary is one entry of the project catalog.
type ProjectSummary struct {
	Lives       *int     `json:"lives,omitempty"`
	ID          string   `json:"project_id"`
	Name        string   `json:"name"`
	Unimed      string   `json:"unimed"`
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`
	CreatedAt   string   `json:"created_at"`
	Tags        []string `json:"tags,omitempty"`
}

// Project is the full metadata of a project.
type Project struct {
	ProjectSummary
	UpdatedAt string `json:"updated_at,omitempty"`
	DataRef   string `json:"data_ref,omitempty"`
}

// AnalysisRequest is the body shared by the preview, download and run endpoints.
type AnalysisRequest struct {
	UltimaCompRef Date         `json:"ultima_comp_ref"`
	Mapping       FinalMapping `json:"mapping"`
}

// RunStatus acknowledges a completed analysis run.
type RunStatus struct {
	Status string `json:"status"`
}

// HistoryEntry records a project created on this machine.
type HistoryEntry struct {
	CreatedAt   time.Time
	SubmittedAt *time.Time
	ProjectID   string
	Name        string
	Unimed      string
	LastStep    int
}

// ViewMode is the project catalog layout preference.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// Valid reports whether the view mode is known.
func (v ViewMode) Valid() bool {
	return v == ViewGrid || v == ViewList
}
