package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EditorSessionRepository interface {
	Get(ctx context.Context, pageID, userID uuid.UUID, dest *models.EditorSession) error
	Upsert(ctx context.Context, s *models.EditorSession) error
}

type editorSessionRepository struct {
	db *gorm.DB
}

func NewEditorSessionRepository(db *gorm.DB) EditorSessionRepository {
	return &editorSessionRepository{db: db}
}

func (r *editorSessionRepository) Get(ctx context.Context, pageID, userID uuid.UUID, dest *models.EditorSession) error {
	if err := r.db.WithContext(ctx).Where("page_id = ? AND user_id = ?", pageID, userID).First(dest).Error; err != nil {
		return notFound(err, "editor session", "get editor session failed")
	}
	return nil
}

// Upsert writes the session keyed by page and user.
func (r *editorSessionRepository) Upsert(ctx context.Context, s *models.EditorSession) error {
	s.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "page_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "selected_block_id", "last_prompt", "context_window_ref", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return translate(err, "upsert editor session failed")
	}
	return r.Get(ctx, s.PageID, s.UserID, s)
}
