package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/artifact"
	"github.com/site-studio/engine/internal/lock"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/publisher"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"github.com/site-studio/engine/pkg/utils"
	"go.uber.org/zap"
)

// PublishService ships a revision to the publish hook.
type PublishService interface {
	Publish(ctx context.Context, actorID uuid.UUID, in PublishInput) (*PublishResult, error)
}

type PublishInput struct {
	PageID       uuid.UUID
	RevisionID   uuid.UUID
	ApprovalNote string
}

type PublishResult struct {
	PublishLogID uuid.UUID `json:"publishLogId"`
	CommitSHA    string    `json:"commitSha,omitempty"`
	Paths        []string  `json:"paths"`
}

// finalizeLockWait bounds how long a finished publish waits for the page
// lock before giving up on recording its outcome.
const finalizeLockWait = 30 * time.Second

type publishService struct {
	repos     *repository.Repositories
	locker    lock.Locker
	themes    ThemeService
	snapshots SnapshotService
	publisher publisher.Publisher
	renderer  *artifact.Renderer
}

func NewPublishService(repos *repository.Repositories, locker lock.Locker, themes ThemeService, snapshots SnapshotService, pub publisher.Publisher, renderer *artifact.Renderer) PublishService {
	if locker == nil {
		locker = lock.NewMemory()
	}
	if snapshots == nil {
		snapshots = NewSnapshotService(repos.Snapshots)
	}
	if renderer == nil {
		renderer = artifact.NewRenderer()
	}
	return &publishService{
		repos:     repos,
		locker:    locker,
		themes:    themes,
		snapshots: snapshots,
		publisher: pub,
		renderer:  renderer,
	}
}

var _ PublishService = (*publishService)(nil)

// Publish snapshots the revision, renders it and posts it to the hook. Every
// attempt that gets past loading leaves one publish log row. A page that was
// live stays live when a re-publish fails.
func (s *publishService) Publish(ctx context.Context, actorID uuid.UUID, in PublishInput) (*PublishResult, error) {
	logger.L().Info("publish called",
		zap.String("user_id", actorID.String()),
		zap.String("page_id", in.PageID.String()),
		zap.String("revision_id", in.RevisionID.String()))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}

	var page models.Page
	if err := s.repos.Pages.GetByID(ctx, in.PageID, &page); err != nil {
		return nil, err
	}
	var project models.Project
	if err := s.repos.Projects.GetByID(ctx, page.ProjectID, &project); err != nil {
		return nil, err
	}
	var rev models.Revision
	if err := s.repos.Revisions.GetForPage(ctx, page.ID, in.RevisionID, &rev); err != nil {
		return nil, appErr.NotFound(err, "Revision not found for this page.")
	}
	theme, err := s.themes.Resolve(ctx, &project)
	if err != nil {
		return nil, err
	}
	tokens := themeTokens(theme)
	doc := decodeDocument(rev.DSLDocument)

	encoded, err := encodeJSON(doc, "document")
	if err != nil {
		return nil, err
	}
	if _, err := s.snapshots.Capture(ctx, CaptureInput{
		PageID:     page.ID,
		RevisionID: rev.ID,
		Type:       models.SnapshotPrePublish,
		Document:   encoded,
		Theme:      tokens,
		ActorID:    actorID,
	}); err != nil {
		return nil, err
	}

	html, err := s.renderer.Render(doc, tokens, artifact.Options{})
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "render page failed")
	}
	art := publisher.Artifact{
		ProjectSlug:  project.Slug,
		PageSlug:     page.Slug,
		PageTitle:    page.Title,
		RevisionID:   rev.ID.String(),
		ApprovalNote: in.ApprovalNote,
		FilePath:     publisher.ArtifactPath(page.Slug),
		FileContent:  html,
	}
	logEntry := &models.PublishLog{
		PageID:       page.ID,
		RevisionID:   rev.ID,
		PublishedBy:  actorID,
		ApprovalNote: in.ApprovalNote,
		ContentHash:  utils.HexSHA256([]byte(html)),
		PublishedAt:  time.Now(),
	}

	if s.publisher == nil || !s.publisher.Configured() {
		cause := appErr.New(appErr.CodeUnavailable, "Publish webhook is not configured.")
		if err := s.record(ctx, logEntry, []string{art.FilePath}, cause); err != nil {
			return nil, err
		}
		return nil, cause
	}

	receipt, pubErr := s.publisher.Publish(ctx, art)
	if pubErr != nil {
		if err := s.finalize(ctx, page.ID, logEntry, []string{art.FilePath}, pubErr); err != nil {
			return nil, err
		}
		logger.L().Warn("publish failed", zap.String("page_id", page.ID.String()), zap.Error(pubErr))
		return nil, pubErr
	}

	logEntry.CommitSHA = receipt.CommitSHA
	if err := s.finalize(ctx, page.ID, logEntry, receipt.Paths, nil); err != nil {
		return nil, err
	}
	logger.L().Info("page published",
		zap.String("page_id", page.ID.String()),
		zap.String("revision_id", rev.ID.String()),
		zap.String("commit_sha", receipt.CommitSHA))
	return &PublishResult{PublishLogID: logEntry.ID, CommitSHA: receipt.CommitSHA, Paths: receipt.Paths}, nil
}

// record writes the log row alone, leaving the page untouched.
func (s *publishService) record(ctx context.Context, entry *models.PublishLog, paths []string, cause error) error {
	if err := fillLog(entry, paths, cause); err != nil {
		return err
	}
	return s.repos.Publishes.Create(context.WithoutCancel(ctx), entry)
}

// finalize writes the log row and moves the page to its post-publish status.
// The page is re-read under its lock, so a page that went live while the
// hook was running stays live when this attempt failed.
func (s *publishService) finalize(ctx context.Context, pageID uuid.UUID, entry *models.PublishLog, paths []string, cause error) error {
	if err := fillLog(entry, paths, cause); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	lockCtx, cancel := context.WithTimeout(ctx, finalizeLockWait)
	defer cancel()
	return withPageLock(lockCtx, s.locker, pageID, func() error {
		return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			if err := tx.Publishes.Create(ctx, entry); err != nil {
				return err
			}
			var page models.Page
			if err := tx.Pages.GetByID(ctx, pageID, &page); err != nil {
				return err
			}
			if cause == nil {
				at := entry.PublishedAt
				return tx.Pages.SetState(ctx, page.ID, repository.PageState{
					Status:            models.PageStatusPublished,
					CurrentRevisionID: entry.RevisionID,
					UpdatedBy:         entry.PublishedBy,
					PublishedAt:       &at,
				})
			}
			status := models.PageStatusReview
			if page.Status == models.PageStatusPublished {
				status = models.PageStatusPublished
			}
			return tx.Pages.SetStatus(ctx, page.ID, status)
		})
	})
}

func fillLog(entry *models.PublishLog, paths []string, cause error) error {
	encoded, err := encodeJSON(paths, "publish paths")
	if err != nil {
		return err
	}
	entry.Paths = encoded
	entry.Status = models.PublishSuccess
	if cause != nil {
		entry.Status = models.PublishFailed
		entry.Error = appErr.MessageOf(cause)
	}
	return nil
}
