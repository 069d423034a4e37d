package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PageStatusDraft     = "draft"
	PageStatusReview    = "review"
	PageStatusPublished = "published"
)

// Page is an editable page within a project. Its content lives in revisions.
type Page struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_pages_project_slug" json:"project_id"`
	Slug              string         `gorm:"not null;uniqueIndex:idx_pages_project_slug" json:"slug"`
	Title             string         `gorm:"not null" json:"title"`
	Status            string         `gorm:"type:varchar(16);not null;index" json:"status" validate:"oneof=draft review published"`
	CurrentRevisionID *uuid.UUID     `gorm:"type:uuid" json:"current_revision_id,omitempty"`
	PublishedAt       *time.Time     `json:"published_at,omitempty"`
	CreatedBy         uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	UpdatedBy         uuid.UUID      `gorm:"type:uuid" json:"updated_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Page) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

// StatusAfterEdit is the status a page moves to when its content changes:
// a live page is flagged for review, anything else keeps its status.
func (p *Page) StatusAfterEdit() string {
	if p.Status == PageStatusPublished {
		return PageStatusReview
	}
	return p.Status
}
