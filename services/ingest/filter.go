package ingest

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemFilter is a typed query specification built by the caller and
// interpreted only by the store layer. No loosely typed maps cross the core.
type ItemFilter struct {
	OwnerID   uuid.UUID
	ProjectID uuid.UUID
	Status    string
	Limit     int
	Offset    int
}

const defaultListLimit = 50

// apply narrows a query to the filter. Ownership scoping is mandatory; every
// list goes through the projects join so tenants only ever see their own rows.
func (f ItemFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Joins("JOIN projects ON projects.id = items.project_id").
		Where("projects.owner_id = ?", f.OwnerID)

	if f.ProjectID != uuid.Nil {
		q = q.Where("items.project_id = ?", f.ProjectID)
	}
	if f.Status != "" {
		q = q.Where("items.status = ?", f.Status)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	return q.Order("items.created_at DESC").Limit(limit).Offset(max(f.Offset, 0))
}
