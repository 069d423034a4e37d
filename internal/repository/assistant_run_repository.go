package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunOutcome is the terminal state written to an assistant run.
type RunOutcome struct {
	Status            string
	Operations        datatypes.JSON
	Plan              datatypes.JSON
	Errors            datatypes.JSON
	PreviewRevisionID *uuid.UUID
	Provider          string
	Model             string
	TokenUsage        datatypes.JSON
}

type AssistantRunRepository interface {
	Create(ctx context.Context, run *models.AssistantRun) error
	GetByID(ctx context.Context, id any, dest *models.AssistantRun) error
	Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error
	ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.AssistantRun, error)
	FailStale(ctx context.Context, startedBefore time.Time, reason datatypes.JSON) (int64, error)
}

type assistantRunRepository struct {
	db *gorm.DB
}

func NewAssistantRunRepository(db *gorm.DB) AssistantRunRepository {
	return &assistantRunRepository{db: db}
}

func (r *assistantRunRepository) Create(ctx context.Context, run *models.AssistantRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return translate(err, "create assistant run failed")
	}
	return nil
}

func (r *assistantRunRepository) GetByID(ctx context.Context, id any, dest *models.AssistantRun) error {
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		return notFound(err, "assistant run", "get assistant run failed")
	}
	return nil
}

// Finish moves a running run to its terminal state. A run that is no longer
// running is left untouched and CodeConflict is returned.
func (r *assistantRunRepository) Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error {
	now := time.Now()
	updates := map[string]any{
		"result_status": out.Status,
		"completed_at":  now,
		"provider":      out.Provider,
		"model":         out.Model,
	}
	if out.Operations != nil {
		updates["operations_json"] = out.Operations
	}
	if out.Plan != nil {
		updates["plan_json"] = out.Plan
	}
	if out.Errors != nil {
		updates["errors"] = out.Errors
	}
	if out.TokenUsage != nil {
		updates["token_usage"] = out.TokenUsage
	}
	if out.PreviewRevisionID != nil {
		updates["preview_revision_id"] = *out.PreviewRevisionID
	}

	res := r.db.WithContext(ctx).Model(&models.AssistantRun{}).
		Where("id = ? AND result_status = ?", runID, models.RunRunning).
		Updates(updates)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "finish assistant run failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeConflict, "assistant run is not running")
	}
	return nil
}

func (r *assistantRunRepository) ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.AssistantRun, error) {
	var out []models.AssistantRun
	q := r.db.WithContext(ctx).Where("page_id = ?", pageID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list assistant runs failed")
	}
	return out, nil
}

// FailStale marks runs still running since before startedBefore as failed.
func (r *assistantRunRepository) FailStale(ctx context.Context, startedBefore time.Time, reason datatypes.JSON) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AssistantRun{}).
		Where("result_status = ? AND created_at < ?", models.RunRunning, startedBefore).
		Updates(map[string]any{
			"result_status": models.RunFailed,
			"errors":        reason,
			"completed_at":  time.Now(),
		})
	if res.Error != nil {
		return 0, appErr.Wrap(res.Error, appErr.CodeInternal, "fail stale assistant runs failed")
	}
	return res.RowsAffected, nil
}
