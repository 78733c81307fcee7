package statusd

import (
	"time"

	"github.com/google/uuid"
)

// Subjects the external analysis worker publishes to. statusd is the only
// writer of worker-driven job and item transitions; the ingest API reads the
// rows it maintains.
const (
	jobsRunningSubject  = "redactd.jobs.running"
	jobsProgressSubject = "redactd.jobs.progress"
	jobsFinishedSubject = "redactd.jobs.finished"
)

const (
	jobQueued    = "QUEUED"
	jobRunning   = "RUNNING"
	jobCompleted = "COMPLETED"
	jobFailed    = "FAILED"
	jobCancelled = "CANCELLED"

	itemUploaded   = "UPLOADED"
	itemPending    = "PENDING"
	itemProcessing = "PROCESSING"
	itemCompleted  = "COMPLETED"
	itemFailed     = "FAILED"
)

type jobRunningEvent struct {
	JobID     uuid.UUID `json:"job_id"`
	ItemID    uuid.UUID `json:"item_id"`
	StartedAt time.Time `json:"started_at"`
}

type jobProgressEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	ItemID  uuid.UUID `json:"item_id"`
	Percent int       `json:"percent"`
}

type jobFinishedEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	ItemID  uuid.UUID `json:"item_id"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
	EndedAt time.Time `json:"ended_at"`
}

func isTerminalJobStatus(status string) bool {
	switch status {
	case jobCompleted, jobFailed, jobCancelled:
		return true
	default:
		return false
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
