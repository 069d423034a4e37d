package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project groups pages that share a theme.
type Project struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"not null" json:"name" validate:"required"`
	Slug           string         `gorm:"not null;uniqueIndex" json:"slug" validate:"required"`
	Description    string         `gorm:"type:text" json:"description"`
	DefaultThemeID *uuid.UUID     `gorm:"type:uuid" json:"default_theme_id,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;index;not null" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }
