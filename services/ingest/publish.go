package ingest

import "github.com/google/uuid"

// Bus subjects shared with the external analysis worker and statusd.
const (
	subjectJobsQueued   = "redactd.jobs.queued"
	subjectJobsRunning  = "redactd.jobs.running"
	subjectJobsProgress = "redactd.jobs.progress"
	subjectJobsFinished = "redactd.jobs.finished"
)

// jobQueuedEvent is the queue gateway hand-off payload. The worker treats it
// as at-least-once; nothing here is interpreted on the way out.
type jobQueuedEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ItemID       uuid.UUID `json:"item_id"`
	ProjectID    uuid.UUID `json:"project_id"`
	StoragePath  string    `json:"storage_path"`
	PrincipalID  uuid.UUID `json:"principal_id"`
	PolicyID     string    `json:"policy_id,omitempty"`
	Kind         string    `json:"kind"`
	RetryAttempt int       `json:"retry_attempt"`
}
