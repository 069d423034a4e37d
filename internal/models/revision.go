package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceChat     = "chat"
	SourceVisual   = "visual"
	SourceTheme    = "theme"
	SourceRollback = "rollback"
	SourcePublish  = "publish"
)

// Revision is an immutable, numbered version of a page's document.
// Rows are only ever inserted.
type Revision struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PageID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_revisions_page_number" json:"page_id"`
	RevisionNumber int            `gorm:"not null;uniqueIndex:idx_revisions_page_number" json:"revision_number" validate:"gte=1"`
	DSLDocument    datatypes.JSON `gorm:"not null" json:"dsl_document"`
	ThemeOverrides datatypes.JSON `gorm:"not null" json:"theme_overrides"`
	ChangeSummary  string         `gorm:"type:text" json:"change_summary"`
	Source         string         `gorm:"type:varchar(16);not null" json:"source" validate:"oneof=chat visual theme rollback publish"`
	BaseRevisionID *uuid.UUID     `gorm:"type:uuid" json:"base_revision_id,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (r *Revision) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
