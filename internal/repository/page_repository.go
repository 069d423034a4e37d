package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/gorm"
)

// PageState is the mutable part of a page touched by edits and publishes.
type PageState struct {
	Status            string
	CurrentRevisionID uuid.UUID
	UpdatedBy         uuid.UUID
	PublishedAt       *time.Time // nil leaves published_at unchanged
}

type PageRepository interface {
	BaseRepository[models.Page]
	GetBySlug(ctx context.Context, projectID uuid.UUID, slug string, dest *models.Page) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Page, error)
	CountByProject(ctx context.Context, projectID uuid.UUID, status string) (int64, error)
	SetState(ctx context.Context, pageID uuid.UUID, state PageState) error
	SetStatus(ctx context.Context, pageID uuid.UUID, status string) error
}

type pageRepository struct {
	BaseRepository[models.Page]
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{BaseRepository: NewBaseRepository[models.Page](db), db: db}
}

func (r *pageRepository) GetBySlug(ctx context.Context, projectID uuid.UUID, slug string, dest *models.Page) error {
	if err := r.db.WithContext(ctx).Where("project_id = ? AND slug = ?", projectID, slug).First(dest).Error; err != nil {
		return notFound(err, "page", "get page by slug failed")
	}
	return nil
}

func (r *pageRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Page, error) {
	var out []models.Page
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list pages failed")
	}
	return out, nil
}

// CountByProject counts pages; an empty status counts all of them.
func (r *pageRepository) CountByProject(ctx context.Context, projectID uuid.UUID, status string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Page{}).Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count pages failed")
	}
	return n, nil
}

func (r *pageRepository) SetState(ctx context.Context, pageID uuid.UUID, state PageState) error {
	updates := map[string]any{
		"status":              state.Status,
		"current_revision_id": state.CurrentRevisionID,
		"updated_by":          state.UpdatedBy,
	}
	if state.PublishedAt != nil {
		updates["published_at"] = *state.PublishedAt
	}
	res := r.db.WithContext(ctx).Model(&models.Page{}).Where("id = ?", pageID).Updates(updates)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update page state failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "page not found")
	}
	return nil
}

func (r *pageRepository) SetStatus(ctx context.Context, pageID uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Page{}).Where("id = ?", pageID).Update("status", status)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update page status failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "page not found")
	}
	return nil
}
