package ingest

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type projectModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

func (projectModel) TableName() string { return "projects" }

type itemModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Name              string    `gorm:"type:text;not null"`
	SanitizedFilename string    `gorm:"type:text;not null"`
	DeclaredType      string    `gorm:"type:text;not null"`
	SizeBytes         int64     `gorm:"type:bigint;not null"`
	StoragePath       string    `gorm:"type:text;not null"`
	ContentHash       string    `gorm:"type:text;not null"`
	Status            string    `gorm:"type:text;not null;index"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime"`
}

func (itemModel) TableName() string { return "items" }

func (m itemModel) toAPI() Item {
	return Item{
		ID:                m.ID,
		ProjectID:         m.ProjectID,
		Name:              m.Name,
		SanitizedFilename: m.SanitizedFilename,
		DeclaredType:      m.DeclaredType,
		SizeBytes:         m.SizeBytes,
		StoragePath:       m.StoragePath,
		ContentHash:       m.ContentHash,
		Status:            m.Status,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

type jobModel struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ItemID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind            string            `gorm:"type:text;not null"`
	Status          string            `gorm:"type:text;not null;index"`
	ProgressPercent int               `gorm:"type:int;not null;default:0"`
	StartedAt       *time.Time
	EndedAt         *time.Time
	Error           string            `gorm:"type:text"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time         `gorm:"not null;autoCreateTime"`
}

func (jobModel) TableName() string { return "jobs" }

func (m jobModel) toAPI() Job {
	return Job{
		ID:              m.ID,
		ItemID:          m.ItemID,
		Kind:            m.Kind,
		Status:          m.Status,
		ProgressPercent: m.ProgressPercent,
		StartedAt:       m.StartedAt,
		EndedAt:         m.EndedAt,
		Error:           m.Error,
		Metadata:        mapFromJSONMap(m.Metadata),
		CreatedAt:       m.CreatedAt,
	}
}

type auditModel struct {
	ID      int64             `gorm:"type:bigserial;primaryKey"`
	Actor   string            `gorm:"type:text;not null"`
	Action  string            `gorm:"type:text;not null"`
	Obj     string            `gorm:"type:text"`
	Details datatypes.JSONMap `gorm:"type:jsonb"`
	At      time.Time         `gorm:"not null;autoCreateTime"`
}

func (auditModel) TableName() string { return "audit" }

func mapFromJSONMap(src datatypes.JSONMap) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func toJSONMap(src map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	if src == nil {
		return out
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
