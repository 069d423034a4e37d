package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SnapshotAuto       = "auto"
	SnapshotManual     = "manual"
	SnapshotPrePublish = "pre_publish"
)

// Snapshot captures a document and the theme it was shown with.
type Snapshot struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PageID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_snapshots_page_created" json:"page_id"`
	RevisionID   uuid.UUID      `gorm:"type:uuid;not null" json:"revision_id"`
	SnapshotType string         `gorm:"type:varchar(16);not null" json:"snapshot_type" validate:"oneof=auto manual pre_publish"`
	DSLDocument  datatypes.JSON `gorm:"not null" json:"dsl_document"`
	ThemeTokens  datatypes.JSON `gorm:"not null" json:"theme_tokens"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt    time.Time      `gorm:"index:idx_snapshots_page_created" json:"created_at"`
}

func (s *Snapshot) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }
