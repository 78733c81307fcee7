package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Item struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Name              string    `gorm:"type:text;not null"`
	SanitizedFilename string    `gorm:"type:text;not null"`
	DeclaredType      string    `gorm:"type:text;not null"`
	SizeBytes         int64     `gorm:"type:bigint;not null"`
	StoragePath       string    `gorm:"type:text;not null"`
	ContentHash       string    `gorm:"type:text;not null"`
	Status            string    `gorm:"type:text;not null;index"`
	CreatedAt         time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt         time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Project           Project   `gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Job struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ItemID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind            string            `gorm:"type:text;not null"`
	Status          string            `gorm:"type:text;not null;index"`
	ProgressPercent int               `gorm:"type:int;not null;default:0"`
	StartedAt       *time.Time        `gorm:"type:timestamptz"`
	EndedAt         *time.Time        `gorm:"type:timestamptz"`
	Error           string            `gorm:"type:text"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Item            Item              `gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Audit struct {
	ID      int64             `gorm:"type:bigserial;primaryKey"`
	Actor   string            `gorm:"type:text;not null"`
	Action  string            `gorm:"type:text;not null"`
	Obj     string            `gorm:"type:text"`
	Details datatypes.JSONMap `gorm:"type:jsonb"`
	At      time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (Audit) TableName() string { return "audit" }

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&Project{},
		&Item{},
		&Job{},
		&Audit{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Item{}, "Project"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Job{}, "Item"); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&Audit{},
		&Job{},
		&Item{},
		&Project{},
	); err != nil {
		return err
	}

	return nil
}
