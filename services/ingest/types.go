package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Item lifecycle states. PROCESSING, COMPLETED and FAILED are reached through
// worker events applied by statusd; everything else is owned by Lifecycle.
const (
	ItemUploaded   = "UPLOADED"
	ItemPending    = "PENDING"
	ItemProcessing = "PROCESSING"
	ItemCompleted  = "COMPLETED"
	ItemFailed     = "FAILED"
	ItemCancelled  = "CANCELLED"
)

// Job states and kinds.
const (
	JobQueued    = "QUEUED"
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
	JobCancelled = "CANCELLED"

	JobKindAnalyze = "ANALYZE"
)

// Item is a persisted, ingested piece of content and its lifecycle status.
type Item struct {
	ID                uuid.UUID `json:"id"`
	ProjectID         uuid.UUID `json:"project_id"`
	Name              string    `json:"name"`
	SanitizedFilename string    `json:"sanitized_filename"`
	DeclaredType      string    `json:"declared_type"`
	SizeBytes         int64     `json:"size_bytes"`
	StoragePath       string    `json:"storage_path"`
	ContentHash       string    `json:"content_hash"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Job is one stage of asynchronous processing attached to an Item. Metadata is
// an opaque bag carrying retry provenance; the lifecycle manager never
// interprets it.
type Job struct {
	ID              uuid.UUID      `json:"id"`
	ItemID          uuid.UUID      `json:"item_id"`
	Kind            string         `json:"kind"`
	Status          string         `json:"status"`
	ProgressPercent int            `json:"progress_percent"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	Error           string         `json:"error,omitempty"`
	Metadata        map[string]any `json:"metadata"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Progress is the read-only projection over an item's job list. It is derived
// on demand and never stored.
type Progress struct {
	ItemID         uuid.UUID `json:"item_id"`
	OverallPercent int       `json:"overall_percent"`
	Stage          string    `json:"stage"`
	TotalJobs      int       `json:"total_jobs"`
	CompletedJobs  int       `json:"completed_jobs"`
}

func isRetryable(status string) bool {
	return status == ItemFailed || status == ItemCancelled
}
