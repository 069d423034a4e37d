package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Theme is a project's stored design-token set.
type Theme struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;index:idx_themes_project_default;not null" json:"project_id"`
	Name      string         `gorm:"not null" json:"name"`
	Tokens    datatypes.JSON `gorm:"not null" json:"tokens"`
	IsDefault bool           `gorm:"not null;default:false;index:idx_themes_project_default" json:"is_default"`
	CreatedBy uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	UpdatedBy uuid.UUID      `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (t *Theme) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }
