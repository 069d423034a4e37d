package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/site-studio/engine/internal/services"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
)

const TypePagePublish = "page:publish"

// PublishPayload is the task payload for queued publishes.
type PublishPayload struct {
	PageID       string `json:"page_id"`
	RevisionID   string `json:"revision_id"`
	ActorID      string `json:"actor_id"`
	ApprovalNote string `json:"approval_note,omitempty"`
}

// Enqueuer is the part of *asynq.Client the API needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewPublishTask builds a page:publish task. Publishing is not idempotent
// on the remote side, so the task is never retried.
func NewPublishTask(p PublishPayload) (*asynq.Task, error) {
	pb, err := json.Marshal(p)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "marshal publish payload")
	}
	return asynq.NewTask(TypePagePublish, pb, asynq.MaxRetry(0), asynq.Timeout(2*time.Minute)), nil
}

// EnqueuePublish queues a publish and returns the task id.
func EnqueuePublish(ctx context.Context, q Enqueuer, p PublishPayload) (string, error) {
	if q == nil {
		return "", appErr.New(appErr.CodeUnavailable, "task queue is not configured")
	}
	task, err := NewPublishTask(p)
	if err != nil {
		return "", err
	}
	info, err := q.EnqueueContext(ctx, task)
	if err != nil {
		return "", appErr.Wrap(err, appErr.CodeUnavailable, "enqueue publish failed")
	}
	logger.L().Info("publish enqueued", zap.String("page_id", p.PageID), zap.String("task_id", info.ID))
	return info.ID, nil
}

// PublishTaskHandler runs queued publishes through the same pipeline as the API.
type PublishTaskHandler struct {
	publisher services.PublishService
}

func NewPublishTaskHandler(publisher services.PublishService) *PublishTaskHandler {
	return &PublishTaskHandler{publisher: publisher}
}

func (h *PublishTaskHandler) HandlePublish(ctx context.Context, t *asynq.Task) error {
	var p PublishPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid publish task payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	in, actorID, err := p.input()
	if err != nil {
		logger.L().Error("invalid id in publish task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	logger.L().Info("handling publish task",
		zap.String("page_id", p.PageID),
		zap.String("revision_id", p.RevisionID))

	res, err := h.publisher.Publish(ctx, actorID, in)
	if err != nil {
		logger.L().Error("queued publish failed", zap.String("page_id", p.PageID), zap.Error(err))
		return err
	}
	logger.L().Info("queued publish completed",
		zap.String("page_id", p.PageID),
		zap.String("publish_log_id", res.PublishLogID.String()))
	return nil
}

func (p PublishPayload) input() (services.PublishInput, uuid.UUID, error) {
	pageID, err := uuid.Parse(p.PageID)
	if err != nil {
		return services.PublishInput{}, uuid.Nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid page id")
	}
	revID, err := uuid.Parse(p.RevisionID)
	if err != nil {
		return services.PublishInput{}, uuid.Nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid revision id")
	}
	actorID, err := uuid.Parse(p.ActorID)
	if err != nil {
		return services.PublishInput{}, uuid.Nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid actor id")
	}
	return services.PublishInput{PageID: pageID, RevisionID: revID, ApprovalNote: p.ApprovalNote}, actorID, nil
}
