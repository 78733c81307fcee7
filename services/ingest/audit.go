package ingest

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// Auditor persists structured incident and activity records. Fire-and-forget:
// a failed insert is logged and must never fail the primary operation.
type Auditor struct {
	orm    *gorm.DB
	logger *log.Logger
}

// NewAuditor returns an Auditor writing to the audit table.
func NewAuditor(orm *gorm.DB, logger *log.Logger) *Auditor {
	if logger == nil {
		logger = log.Default()
	}
	return &Auditor{orm: orm, logger: logger}
}

// Record writes one audit row. Safe to call with a nil receiver or without a
// configured store; both degrade to a log line.
func (a *Auditor) Record(ctx context.Context, actor, action, resource string, details map[string]any) {
	if a == nil || a.orm == nil {
		log.Printf("AUDIT %s %s %s", actor, action, resource)
		return
	}
	entry := auditModel{
		Actor:   actor,
		Action:  action,
		Obj:     resource,
		Details: toJSONMap(details),
		At:      time.Now().UTC(),
	}
	if err := a.orm.WithContext(ctx).Create(&entry).Error; err != nil {
		a.logger.Printf("WARN audit record dropped (%s %s): %v", action, resource, err)
	}
}
