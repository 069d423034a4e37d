package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PublishSuccess = "success"
	PublishFailed  = "failed"
)

// PublishLog records one publish attempt.
type PublishLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PageID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_publish_logs_page" json:"page_id"`
	RevisionID   uuid.UUID      `gorm:"type:uuid;not null" json:"revision_id"`
	PublishedBy  uuid.UUID      `gorm:"type:uuid" json:"published_by"`
	ApprovalNote string         `gorm:"type:text" json:"approval_note,omitempty"`
	CommitSHA    string         `json:"commit_sha,omitempty"`
	Paths        datatypes.JSON `gorm:"not null" json:"paths"`
	ContentHash  string         `json:"content_hash,omitempty"`
	Status       string         `gorm:"type:varchar(16);not null" json:"status" validate:"oneof=success failed"`
	Error        string         `gorm:"type:text" json:"error,omitempty"`
	PublishedAt  time.Time      `gorm:"index:idx_publish_logs_page" json:"published_at"`
}

func (l *PublishLog) BeforeCreate(*gorm.DB) error { ensureID(&l.ID); return nil }
