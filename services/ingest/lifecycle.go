package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// blobDeleter is the slice of the object store the lifecycle needs for
// soft-delete cleanup.
type blobDeleter interface {
	DeleteObject(ctx context.Context, bucket, key string) error
}

// queuePublisher hands jobs to the external analysis worker. Fire-and-forget;
// the lifecycle never waits on an acknowledgment.
type queuePublisher interface {
	Publish(ctx context.Context, subj string, v any) error
}

// Lifecycle owns the ingested-item and processing-job state machine: creation,
// retry, soft-deletion, and the ownership checks guarding all of it. Durable
// state lives entirely in the store; Lifecycle itself holds no mutable state
// and is safe for concurrent use.
type Lifecycle struct {
	orm     *gorm.DB
	storage blobDeleter
	queue   queuePublisher
	bucket  string
	logger  *log.Logger
}

// NewLifecycle wires a Lifecycle. storage and queue may be nil in tests; the
// corresponding side effects become no-ops with a log line.
func NewLifecycle(orm *gorm.DB, storage blobDeleter, queue queuePublisher, bucket string, logger *log.Logger) (*Lifecycle, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Lifecycle{orm: orm, storage: storage, queue: queue, bucket: bucket, logger: logger}, nil
}

// CreateInput carries everything needed to persist a validated upload.
type CreateInput struct {
	ProjectID          uuid.UUID
	PrincipalID        uuid.UUID
	PolicyID           string
	Name               string
	SanitizedFilename  string
	DeclaredType       string
	SizeBytes          int64
	StoragePath        string
	ContentHash        string
	ProcessImmediately bool
}

// CreateItem records an admitted upload. Without immediate processing the item
// rests at UPLOADED with zero jobs; with it, the item starts PENDING with
// exactly one QUEUED ANALYZE job handed to the queue gateway.
func (l *Lifecycle) CreateItem(ctx context.Context, in CreateInput) (Item, *Job, error) {
	if _, err := l.projectForPrincipal(ctx, l.orm, in.ProjectID, in.PrincipalID); err != nil {
		return Item{}, nil, err
	}

	status := ItemUploaded
	if in.ProcessImmediately {
		status = ItemPending
	}

	now := time.Now().UTC()
	item := itemModel{
		ID:                uuid.New(),
		ProjectID:         in.ProjectID,
		Name:              in.Name,
		SanitizedFilename: in.SanitizedFilename,
		DeclaredType:      in.DeclaredType,
		SizeBytes:         in.SizeBytes,
		StoragePath:       in.StoragePath,
		ContentHash:       in.ContentHash,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var job *jobModel
	err := l.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if !in.ProcessImmediately {
			return nil
		}
		meta := map[string]any{"retry_attempt": 0}
		if in.PolicyID != "" {
			meta["policy_id"] = in.PolicyID
		}
		j := jobModel{
			ID:        uuid.New(),
			ItemID:    item.ID,
			Kind:      JobKindAnalyze,
			Status:    JobQueued,
			Metadata:  toJSONMap(meta),
			CreatedAt: now,
		}
		if err := tx.Create(&j).Error; err != nil {
			return err
		}
		job = &j
		return nil
	})
	if err != nil {
		return Item{}, nil, fmt.Errorf("create item: %w", err)
	}

	if job != nil {
		l.enqueue(ctx, item, *job, in.PrincipalID, in.PolicyID, 0)
		out := job.toAPI()
		return item.toAPI(), &out, nil
	}
	return item.toAPI(), nil, nil
}

// Retry re-queues a FAILED or CANCELLED item. The whole read-then-write
// sequence runs in one serializable transaction with a compare-and-swap on
// status, so two concurrent retries cannot both pass the precondition and
// queue duplicate work.
func (l *Lifecycle) Retry(ctx context.Context, id, principalID uuid.UUID, policyID string) (Item, Job, error) {
	var (
		item    itemModel
		job     jobModel
		attempt int64
	)

	err := l.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := l.itemForPrincipal(ctx, tx, id, principalID)
		if err != nil {
			return err
		}
		if !isRetryable(found.Status) {
			return fmt.Errorf("%w: status %s", ErrInvalidState, found.Status)
		}

		res := tx.Model(&itemModel{}).
			Where("id = ? AND status IN ?", id, []string{ItemFailed, ItemCancelled}).
			Updates(map[string]any{"status": ItemPending, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another retry won the race inside the isolation window.
			return fmt.Errorf("%w: status changed concurrently", ErrInvalidState)
		}

		// Stale work must not execute twice; cancelling is idempotent.
		if err := tx.Model(&jobModel{}).
			Where("item_id = ? AND status IN ?", id, []string{JobFailed, JobQueued}).
			Update("status", JobCancelled).Error; err != nil {
			return err
		}

		var priorAnalyze int64
		if err := tx.Model(&jobModel{}).
			Where("item_id = ? AND kind = ?", id, JobKindAnalyze).
			Count(&priorAnalyze).Error; err != nil {
			return err
		}

		attempt = priorAnalyze + 1
		meta := map[string]any{
			"is_retry":           true,
			"original_job_count": priorAnalyze,
			"retry_attempt":      attempt,
		}
		if policyID != "" {
			meta["policy_id"] = policyID
		}
		job = jobModel{
			ID:        uuid.New(),
			ItemID:    id,
			Kind:      JobKindAnalyze,
			Status:    JobQueued,
			Metadata:  toJSONMap(meta),
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&job).Error; err != nil {
			return err
		}

		found.Status = ItemPending
		item = found
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return Item{}, Job{}, err
	}

	l.enqueue(ctx, item, job, principalID, policyID, int(attempt))

	return item.toAPI(), job.toAPI(), nil
}

// SoftDelete removes the staged bytes best-effort and cancels the item
// unconditionally. Jobs and findings stay behind for the audit trail; a
// storage failure is logged and swallowed, never fatal to the transition.
func (l *Lifecycle) SoftDelete(ctx context.Context, id, principalID uuid.UUID) error {
	item, err := l.itemForPrincipal(ctx, l.orm.WithContext(ctx), id, principalID)
	if err != nil {
		return err
	}

	if l.storage != nil && item.StoragePath != "" {
		if err := l.storage.DeleteObject(ctx, l.bucket, item.StoragePath); err != nil {
			l.logger.Printf("WARN failed to remove stored bytes for item %s: %v", id, err)
		}
	}

	return l.orm.WithContext(ctx).Model(&itemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": ItemCancelled, "updated_at": time.Now().UTC()}).Error
}

// Get returns one owned item.
func (l *Lifecycle) Get(ctx context.Context, id, principalID uuid.UUID) (Item, error) {
	m, err := l.itemForPrincipal(ctx, l.orm.WithContext(ctx), id, principalID)
	if err != nil {
		return Item{}, err
	}
	return m.toAPI(), nil
}

// List returns owned items narrowed by the filter.
func (l *Lifecycle) List(ctx context.Context, filter ItemFilter) ([]Item, error) {
	var models []itemModel
	q := filter.apply(l.orm.WithContext(ctx).Model(&itemModel{}))
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(models))
	for _, m := range models {
		items = append(items, m.toAPI())
	}
	return items, nil
}

// Jobs returns the item's jobs ordered by creation time. The current job for
// an item in flight is the most recently created one of the active kind;
// there is no pointer column, callers sort.
func (l *Lifecycle) Jobs(ctx context.Context, id, principalID uuid.UUID) ([]Job, error) {
	if _, err := l.itemForPrincipal(ctx, l.orm.WithContext(ctx), id, principalID); err != nil {
		return nil, err
	}

	var models []jobModel
	if err := l.orm.WithContext(ctx).
		Where("item_id = ?", id).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(models))
	for _, m := range models {
		jobs = append(jobs, m.toAPI())
	}
	return jobs, nil
}

// Progress computes the read-only projection for one owned item.
func (l *Lifecycle) Progress(ctx context.Context, id, principalID uuid.UUID) (Progress, error) {
	jobs, err := l.Jobs(ctx, id, principalID)
	if err != nil {
		return Progress{}, err
	}
	return projectProgress(id, jobs), nil
}

// itemForPrincipal loads an item only if its project belongs to the
// principal. Absence and ownership mismatch are indistinguishable by design.
func (l *Lifecycle) itemForPrincipal(ctx context.Context, tx *gorm.DB, id, principalID uuid.UUID) (itemModel, error) {
	var m itemModel
	err := tx.WithContext(ctx).
		Joins("JOIN projects ON projects.id = items.project_id").
		Where("items.id = ? AND projects.owner_id = ?", id, principalID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return itemModel{}, ErrNotFound
	}
	if err != nil {
		return itemModel{}, err
	}
	return m, nil
}

func (l *Lifecycle) projectForPrincipal(ctx context.Context, tx *gorm.DB, projectID, principalID uuid.UUID) (projectModel, error) {
	var p projectModel
	err := tx.WithContext(ctx).
		Where("id = ? AND owner_id = ?", projectID, principalID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return projectModel{}, ErrNotFound
	}
	if err != nil {
		return projectModel{}, err
	}
	return p, nil
}

// enqueue hands one job to the queue gateway. Errors are logged and dropped;
// if the row is already persisted but the publish fails the job stays QUEUED
// with no compensating transition (redactctl jobs requeue covers operations).
func (l *Lifecycle) enqueue(ctx context.Context, item itemModel, job jobModel, principalID uuid.UUID, policyID string, retryAttempt int) {
	if l.queue == nil {
		l.logger.Printf("WARN queue gateway not configured, job %s left queued", job.ID)
		return
	}
	msg := jobQueuedEvent{
		JobID:        job.ID,
		ItemID:       item.ID,
		ProjectID:    item.ProjectID,
		StoragePath:  item.StoragePath,
		PrincipalID:  principalID,
		PolicyID:     policyID,
		Kind:         job.Kind,
		RetryAttempt: retryAttempt,
	}
	if err := l.queue.Publish(ctx, subjectJobsQueued, msg); err != nil {
		queuePublishFailures.Inc()
		l.logger.Printf("ERROR queue hand-off for job %s failed: %v", job.ID, err)
	}
}
