package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// AssistantRun tracks one prompt-driven edit.
type AssistantRun struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PageID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_runs_page_created" json:"page_id"`
	RevisionID        uuid.UUID      `gorm:"type:uuid;not null" json:"revision_id"`
	UserID            uuid.UUID      `gorm:"type:uuid" json:"user_id"`
	Prompt            string         `gorm:"type:text;not null" json:"prompt"`
	Mode              string         `gorm:"type:varchar(16);not null" json:"mode"`
	ResultStatus      string         `gorm:"type:varchar(16);not null;index" json:"result_status"`
	OperationsJSON    datatypes.JSON `json:"operations_json,omitempty"`
	PlanJSON          datatypes.JSON `json:"plan_json,omitempty"`
	Errors            datatypes.JSON `json:"errors,omitempty"`
	PreviewRevisionID *uuid.UUID     `gorm:"type:uuid" json:"preview_revision_id,omitempty"`
	Provider          string         `json:"provider,omitempty"`
	Model             string         `json:"model,omitempty"`
	TokenUsage        datatypes.JSON `json:"token_usage,omitempty"`
	CreatedAt         time.Time      `gorm:"index:idx_runs_page_created" json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
}

func (r *AssistantRun) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
