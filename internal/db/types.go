package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one report generation
type Run struct {
	ID          uuid.UUID  `json:"id"`
	ClientName  string     `json:"client_name"`
	Website     string     `json:"website"`
	MonthLabel  string     `json:"month_label"`
	Tier        string     `json:"tier"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunInput holds the fields recorded when a run starts
type RunInput struct {
	ClientName string
	Website    string
	MonthLabel string
	Tier       string
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact step names
const (
	StepRequest           = "request"
	StepSupportingContext = "supporting_context"
	StepEvidence          = "evidence"
	StepEvidenceRaw       = "evidence_raw"
	StepDraftRaw          = "draft_raw"
	StepDraft             = "draft"
	StepEmailHTML         = "email_html"
	StepEmailEML          = "email_eml"
)

// Artifact categories
const (
	CategoryIngestion = "ingestion"
	CategoryEvidence  = "evidence"
	CategoryDrafting  = "drafting"
	CategoryRendering = "rendering"
)

// Artifact represents an artifact record
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Step        string    `json:"step"`
	Category    string    `json:"category"`
	Content     any       `json:"content,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	ClientName string
	Status     string
	Limit      int
}

// Step status values
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// RunStep represents a single stage execution for a run
type RunStep struct {
	ID           uuid.UUID  `json:"id"`
	RunID        uuid.UUID  `json:"run_id"`
	Step         string     `json:"step"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   *int       `json:"duration_ms,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
