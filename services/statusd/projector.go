// Package statusd projects worker lifecycle events from the bus onto the job
// and item tables. Every transition is a guarded compare-and-set, so replayed
// or out-of-order deliveries fall through without clobbering newer state.
package statusd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"redactd/pkg/bus"
)

// Projector consumes worker job events and maintains job and item rows.
type Projector struct {
	orm    *gorm.DB
	bus    *bus.Bus
	logger *log.Logger

	subsMu sync.Mutex
	subs   []io.Closer
}

// NewProjector creates a projector bound to the provided dependencies.
func NewProjector(orm *gorm.DB, bus *bus.Bus, logger *log.Logger) (*Projector, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	if bus == nil {
		return nil, errors.New("bus is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Projector{orm: orm, bus: bus, logger: logger}, nil
}

// Start registers durable subscriptions and begins applying events.
func (p *Projector) Start(ctx context.Context) error {
	if p == nil {
		return errors.New("nil projector")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	specs := []struct {
		subject string
		durable string
		handler func(context.Context, []byte) error
	}{
		{jobsRunningSubject, "statusd-running", p.handleRunning},
		{jobsProgressSubject, "statusd-progress", p.handleProgress},
		{jobsFinishedSubject, "statusd-finished", p.handleFinished},
	}

	for _, spec := range specs {
		closer, err := p.bus.Subscribe(ctx, spec.subject, spec.durable, spec.handler)
		if err != nil {
			p.Close()
			return err
		}
		p.subsMu.Lock()
		p.subs = append(p.subs, closer)
		p.subsMu.Unlock()
	}

	return nil
}

// Close tears down active subscriptions.
func (p *Projector) Close() error {
	if p == nil {
		return nil
	}

	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	var firstErr error
	for _, sub := range p.subs {
		if sub == nil {
			continue
		}
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.subs = nil
	return firstErr
}

func (p *Projector) handleRunning(ctx context.Context, data []byte) error {
	var evt jobRunningEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return err
	}
	if evt.JobID == uuid.Nil {
		return errors.New("job_id missing from running event")
	}
	if evt.StartedAt.IsZero() {
		evt.StartedAt = time.Now().UTC()
	}

	res := p.orm.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ? AND status = ?", evt.JobID, jobQueued).
		Updates(map[string]any{
			"status":     jobRunning,
			"started_at": evt.StartedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		staleWorkerEvents.Inc()
		return nil
	}

	workerEventsTotal.WithLabelValues(jobsRunningSubject).Inc()

	if evt.ItemID == uuid.Nil {
		return nil
	}
	return p.orm.WithContext(ctx).
		Model(&itemModel{}).
		Where("id = ? AND status IN ?", evt.ItemID, []string{itemUploaded, itemPending}).
		Update("status", itemProcessing).Error
}

func (p *Projector) handleProgress(ctx context.Context, data []byte) error {
	var evt jobProgressEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return err
	}
	if evt.JobID == uuid.Nil {
		return errors.New("job_id missing from progress event")
	}

	percent := clampPercent(evt.Percent)

	// Progress only moves forward; a late or replayed event loses the CAS.
	res := p.orm.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ? AND status = ? AND progress_percent < ?", evt.JobID, jobRunning, percent).
		Update("progress_percent", percent)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		staleWorkerEvents.Inc()
		return nil
	}

	workerEventsTotal.WithLabelValues(jobsProgressSubject).Inc()
	return nil
}

func (p *Projector) handleFinished(ctx context.Context, data []byte) error {
	var evt jobFinishedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return err
	}
	if evt.JobID == uuid.Nil {
		return errors.New("job_id missing from finished event")
	}
	if !isTerminalJobStatus(evt.Status) {
		p.logger.Printf("WARN dropping finished event with status %q for job %s", evt.Status, evt.JobID)
		return nil
	}
	if evt.EndedAt.IsZero() {
		evt.EndedAt = time.Now().UTC()
	}

	updates := map[string]any{
		"status":   evt.Status,
		"ended_at": evt.EndedAt,
		"error":    evt.Error,
	}
	if evt.Status == jobCompleted {
		updates["progress_percent"] = 100
	}

	res := p.orm.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ? AND status IN ?", evt.JobID, []string{jobQueued, jobRunning}).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		staleWorkerEvents.Inc()
		return nil
	}

	workerEventsTotal.WithLabelValues(jobsFinishedSubject).Inc()

	if evt.ItemID == uuid.Nil {
		return nil
	}
	return p.settleItem(ctx, evt.ItemID)
}

// settleItem derives the item status from its full job list after a terminal
// job transition. A single failed job fails the item; the item completes only
// once every job has completed.
func (p *Projector) settleItem(ctx context.Context, itemID uuid.UUID) error {
	var jobs []jobModel
	if err := p.orm.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&jobs).Error; err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	next := nextItemStatus(jobs)
	if next == "" {
		return nil
	}

	// CANCELLED and already-terminal items stay put.
	return p.orm.WithContext(ctx).
		Model(&itemModel{}).
		Where("id = ? AND status IN ?", itemID, []string{itemUploaded, itemPending, itemProcessing}).
		Update("status", next).Error
}

// nextItemStatus returns the item status implied by the job list, or "" when
// no transition is warranted yet.
func nextItemStatus(jobs []jobModel) string {
	if len(jobs) == 0 {
		return ""
	}

	allCompleted := true
	for _, job := range jobs {
		if job.Status == jobFailed {
			return itemFailed
		}
		if job.Status != jobCompleted {
			allCompleted = false
		}
	}
	if allCompleted {
		return itemCompleted
	}
	return ""
}
