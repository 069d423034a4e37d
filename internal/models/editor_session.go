package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ModeChat   = "chat"
	ModeVisual = "visual"
	ModeTheme  = "theme"
)

// EditorSession remembers where a user left off on a page.
type EditorSession struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PageID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_page_user" json:"page_id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_page_user" json:"user_id"`
	Mode             string    `gorm:"type:varchar(16);not null" json:"mode" validate:"oneof=chat visual theme"`
	SelectedBlockID  string    `json:"selected_block_id,omitempty"`
	LastPrompt       string    `gorm:"type:text" json:"last_prompt,omitempty"`
	ContextWindowRef string    `json:"context_window_ref,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (s *EditorSession) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }
