package statusd

import (
	"time"

	"github.com/google/uuid"
)

type itemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status    string    `gorm:"type:text;not null;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;autoUpdateTime"`
}

func (itemModel) TableName() string { return "items" }

type jobModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ItemID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind            string     `gorm:"type:text;not null"`
	Status          string     `gorm:"type:text;not null;index"`
	ProgressPercent int        `gorm:"type:int;not null;default:0"`
	StartedAt       *time.Time `gorm:"type:timestamptz"`
	EndedAt         *time.Time `gorm:"type:timestamptz"`
	Error           string     `gorm:"type:text"`
}

func (jobModel) TableName() string { return "jobs" }
