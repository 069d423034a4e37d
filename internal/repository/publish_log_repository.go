package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/gorm"
)

type PublishLogRepository interface {
	Create(ctx context.Context, l *models.PublishLog) error
	ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.PublishLog, error)
}

type publishLogRepository struct {
	db *gorm.DB
}

func NewPublishLogRepository(db *gorm.DB) PublishLogRepository {
	return &publishLogRepository{db: db}
}

func (r *publishLogRepository) Create(ctx context.Context, l *models.PublishLog) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return translate(err, "create publish log failed")
	}
	return nil
}

func (r *publishLogRepository) ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.PublishLog, error) {
	var out []models.PublishLog
	q := r.db.WithContext(ctx).Where("page_id = ?", pageID).Order("published_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list publish logs failed")
	}
	return out, nil
}
