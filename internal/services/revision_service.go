package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/lock"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"github.com/site-studio/engine/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Editor state list sizes.
const (
	recentRunsLimit   = 15
	snapshotsLimit    = 30
	publishLogsLimit  = 20
	revisionListLimit = 100
)

const (
	defaultApplyNote = "Block changes applied."
	initialDraftNote = "Initial draft created."
	rollbackNoteFmt  = "Rollback to revision #%d."
)

// RevisionService manages pages and their append-only revision history.
type RevisionService interface {
	NextRevisionNumber(ctx context.Context, pageID uuid.UUID) (int, error)
	CreatePage(ctx context.Context, actorID, projectID uuid.UUID, in CreatePageInput) (*models.Page, *models.Revision, error)
	ApplyOperations(ctx context.Context, actorID uuid.UUID, in ApplyInput) (*ApplyResult, error)
	Rollback(ctx context.Context, actorID, pageID, targetRevisionID uuid.UUID) (*models.Revision, error)

	GetRevision(ctx context.Context, actorID, revisionID uuid.UUID) (*models.Revision, error)
	ListRevisions(ctx context.Context, actorID, pageID uuid.UUID) ([]models.Revision, error)
	ListPages(ctx context.Context, actorID, projectID uuid.UUID) ([]models.Page, error)
	GetEditorState(ctx context.Context, actorID, pageID uuid.UUID) (*EditorState, error)
	SelectBlock(ctx context.Context, actorID uuid.UUID, in SelectionInput) (*models.EditorSession, error)
}

type CreatePageInput struct {
	Title         string
	Slug          string
	InitialPrompt string
}

type ApplyInput struct {
	PageID         uuid.UUID
	BaseRevisionID uuid.UUID
	Operations     []dsl.Operation
	ChangeSummary  string
	Source         string
}

type ApplyResult struct {
	RevisionID     uuid.UUID        `json:"revisionId"`
	RevisionNumber int              `json:"revisionNumber"`
	Document       dsl.Document     `json:"dslDocument"`
	Applied        int              `json:"applied"`
	Skipped        []dsl.Skipped    `json:"skipped,omitempty"`
	Revision       *models.Revision `json:"-"`
}

type SelectionInput struct {
	PageID           uuid.UUID
	Mode             string
	SelectedBlockID  string
	LastPrompt       string
	ContextWindowRef string
}

// EditorState is everything the editor shows for one page.
type EditorState struct {
	Project       *models.Project       `json:"project"`
	Page          *models.Page          `json:"page"`
	Revision      *models.Revision      `json:"revision"`
	Theme         *models.Theme         `json:"theme"`
	EditorSession *models.EditorSession `json:"editorSession"`
	RecentRuns    []models.AssistantRun `json:"recentRuns"`
	Snapshots     []models.Snapshot     `json:"snapshots"`
	PublishLogs   []models.PublishLog   `json:"publishLogs"`
}

type revisionService struct {
	repos     *repository.Repositories
	themes    ThemeService
	snapshots SnapshotService
	writer    *revisionWriter
}

func NewRevisionService(repos *repository.Repositories, locker lock.Locker, themes ThemeService, snapshots SnapshotService) RevisionService {
	w := newRevisionWriter(repos, locker, snapshots)
	return &revisionService{repos: repos, themes: themes, snapshots: w.snapshots, writer: w}
}

var _ RevisionService = (*revisionService)(nil)

func (s *revisionService) NextRevisionNumber(ctx context.Context, pageID uuid.UUID) (int, error) {
	n, err := s.repos.Revisions.MaxNumber(ctx, pageID)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// CreatePage stores a draft page together with its first revision and
// snapshot.
func (s *revisionService) CreatePage(ctx context.Context, actorID, projectID uuid.UUID, in CreatePageInput) (*models.Page, *models.Revision, error) {
	logger.L().Info("create page called", zap.String("user_id", actorID.String()), zap.String("project_id", projectID.String()))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, nil, err
	}
	var project models.Project
	if err := s.repos.Projects.GetByID(ctx, projectID, &project); err != nil {
		return nil, nil, err
	}

	slug := utils.Slugify(in.Slug)
	if slug == "" {
		return nil, nil, appErr.New(appErr.CodeInvalid, "Invalid page slug.")
	}
	var dup models.Page
	err := s.repos.Pages.GetBySlug(ctx, projectID, slug, &dup)
	if err == nil {
		return nil, nil, appErr.New(appErr.CodeAlreadyExists, "Page slug already exists in this project.")
	}
	if !appErr.IsCode(err, appErr.CodeNotFound) {
		return nil, nil, err
	}

	theme, err := s.themes.Resolve(ctx, &project)
	if err != nil {
		return nil, nil, err
	}

	title := strings.TrimSpace(in.Title)
	doc, err := encodeJSON(dsl.StarterDocument(title, slug, in.InitialPrompt), "starter document")
	if err != nil {
		return nil, nil, err
	}

	page := &models.Page{
		ProjectID: projectID,
		Slug:      slug,
		Title:     title,
		Status:    models.PageStatusDraft,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}
	var rev *models.Revision
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Pages.Create(ctx, page); err != nil {
			if appErr.IsCode(err, appErr.CodeAlreadyExists) {
				return appErr.New(appErr.CodeAlreadyExists, "Page slug already exists in this project.")
			}
			return err
		}
		var txErr error
		rev, txErr = s.writer.appendRevision(ctx, tx, page, revisionDraft{
			Document:     doc,
			Summary:      initialDraftNote,
			Source:       models.SourceChat,
			ActorID:      actorID,
			SnapshotType: models.SnapshotAuto,
			Theme:        themeTokens(theme),
		})
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}

	logger.L().Info("page created", zap.String("page_id", page.ID.String()), zap.String("slug", slug))
	return page, rev, nil
}

// ApplyOperations runs ops against the base revision's document and appends
// the result as the page's next revision.
func (s *revisionService) ApplyOperations(ctx context.Context, actorID uuid.UUID, in ApplyInput) (*ApplyResult, error) {
	logger.L().Info("apply operations called",
		zap.String("user_id", actorID.String()),
		zap.String("page_id", in.PageID.String()),
		zap.Int("operations", len(in.Operations)))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	_, project, err := s.loadPage(ctx, in.PageID)
	if err != nil {
		return nil, err
	}

	var base models.Revision
	if err := s.repos.Revisions.GetForPage(ctx, in.PageID, in.BaseRevisionID, &base); err != nil {
		return nil, appErr.NotFound(err, "Base revision not found for this page.")
	}

	next, report := dsl.ApplyWithReport(decodeDocument(base.DSLDocument), in.Operations)
	for _, sk := range report.Skipped {
		logger.L().Debug("operation skipped",
			zap.Int("index", sk.Index),
			zap.String("op", string(sk.Op)),
			zap.String("target", sk.Target),
			zap.String("reason", sk.Reason))
	}
	doc, err := encodeJSON(next, "document")
	if err != nil {
		return nil, err
	}

	theme, err := s.themes.Resolve(ctx, project)
	if err != nil {
		return nil, err
	}

	summary := in.ChangeSummary
	if strings.TrimSpace(summary) == "" {
		summary = defaultApplyNote
	}
	source := in.Source
	if source == "" {
		source = models.SourceChat
	}
	baseID := base.ID

	rev, err := s.writer.append(ctx, in.PageID, func(context.Context, *repository.Repositories, *models.Page) (*revisionDraft, error) {
		return &revisionDraft{
			Document:       doc,
			ThemeOverrides: base.ThemeOverrides,
			Summary:        summary,
			Source:         source,
			BaseRevisionID: &baseID,
			ActorID:        actorID,
			SnapshotType:   models.SnapshotAuto,
			Theme:          themeTokens(theme),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ApplyResult{
		RevisionID:     rev.ID,
		RevisionNumber: rev.RevisionNumber,
		Document:       next,
		Applied:        report.Applied,
		Skipped:        report.Skipped,
		Revision:       rev,
	}, nil
}

// Rollback appends a copy of the target revision. History is never rewritten.
func (s *revisionService) Rollback(ctx context.Context, actorID, pageID, targetRevisionID uuid.UUID) (*models.Revision, error) {
	logger.L().Info("rollback called",
		zap.String("user_id", actorID.String()),
		zap.String("page_id", pageID.String()),
		zap.String("target_revision_id", targetRevisionID.String()))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	_, project, err := s.loadPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	var target models.Revision
	if err := s.repos.Revisions.GetForPage(ctx, pageID, targetRevisionID, &target); err != nil {
		return nil, appErr.NotFound(err, "Target revision not found for this page.")
	}

	theme, err := s.themes.Resolve(ctx, project)
	if err != nil {
		return nil, err
	}

	// The lineage points at whatever was current when the lock was taken.
	rev, err := s.writer.append(ctx, pageID, func(_ context.Context, _ *repository.Repositories, page *models.Page) (*revisionDraft, error) {
		return &revisionDraft{
			Document:       target.DSLDocument,
			ThemeOverrides: target.ThemeOverrides,
			Summary:        fmt.Sprintf(rollbackNoteFmt, target.RevisionNumber),
			Source:         models.SourceRollback,
			BaseRevisionID: page.CurrentRevisionID,
			ActorID:        actorID,
			SnapshotType:   models.SnapshotManual,
			Theme:          themeTokens(theme),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("rolled back",
		zap.String("page_id", pageID.String()),
		zap.Int("from_revision", target.RevisionNumber),
		zap.Int("revision_number", rev.RevisionNumber))
	return rev, nil
}

func (s *revisionService) GetRevision(ctx context.Context, actorID, revisionID uuid.UUID) (*models.Revision, error) {
	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	var rev models.Revision
	if err := s.repos.Revisions.GetByID(ctx, revisionID, &rev); err != nil {
		return nil, err
	}
	return &rev, nil
}

func (s *revisionService) ListRevisions(ctx context.Context, actorID, pageID uuid.UUID) ([]models.Revision, error) {
	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	return s.repos.Revisions.ListByPage(ctx, pageID, revisionListLimit)
}

func (s *revisionService) ListPages(ctx context.Context, actorID, projectID uuid.UUID) ([]models.Page, error) {
	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	return s.repos.Pages.ListByProject(ctx, projectID)
}

func (s *revisionService) GetEditorState(ctx context.Context, actorID, pageID uuid.UUID) (*EditorState, error) {
	logger.L().Info("get editor state", zap.String("user_id", actorID.String()), zap.String("page_id", pageID.String()))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	page, project, err := s.loadPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	state := &EditorState{Project: project, Page: page}

	if page.CurrentRevisionID != nil {
		var rev models.Revision
		if err := s.repos.Revisions.GetByID(ctx, *page.CurrentRevisionID, &rev); err == nil {
			state.Revision = &rev
		} else if !appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, err
		}
	}
	if state.Theme, err = s.themes.Resolve(ctx, project); err != nil {
		return nil, err
	}

	var session models.EditorSession
	if err := s.repos.Sessions.Get(ctx, pageID, actorID, &session); err == nil {
		state.EditorSession = &session
	} else if !appErr.IsCode(err, appErr.CodeNotFound) {
		return nil, err
	}

	if state.RecentRuns, err = s.repos.Runs.ListByPage(ctx, pageID, recentRunsLimit); err != nil {
		return nil, err
	}
	if state.Snapshots, err = s.snapshots.List(ctx, pageID, snapshotsLimit); err != nil {
		return nil, err
	}
	if state.PublishLogs, err = s.repos.Publishes.ListByPage(ctx, pageID, publishLogsLimit); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *revisionService) SelectBlock(ctx context.Context, actorID uuid.UUID, in SelectionInput) (*models.EditorSession, error) {
	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	return saveSession(ctx, s.repos.Sessions, actorID, in)
}

func (s *revisionService) loadPage(ctx context.Context, pageID uuid.UUID) (*models.Page, *models.Project, error) {
	var page models.Page
	if err := s.repos.Pages.GetByID(ctx, pageID, &page); err != nil {
		return nil, nil, appErr.NotFound(err, "Page not found.")
	}
	var project models.Project
	if err := s.repos.Projects.GetByID(ctx, page.ProjectID, &project); err != nil {
		return nil, nil, appErr.NotFound(err, "Project not found.")
	}
	return &page, &project, nil
}

func saveSession(ctx context.Context, sessions repository.EditorSessionRepository, actorID uuid.UUID, in SelectionInput) (*models.EditorSession, error) {
	mode := in.Mode
	switch mode {
	case models.ModeChat, models.ModeVisual, models.ModeTheme:
	case "":
		mode = models.ModeChat
	default:
		return nil, appErr.New(appErr.CodeInvalid, "unknown editor mode")
	}
	session := &models.EditorSession{
		PageID:           in.PageID,
		UserID:           actorID,
		Mode:             mode,
		SelectedBlockID:  in.SelectedBlockID,
		LastPrompt:       in.LastPrompt,
		ContextWindowRef: in.ContextWindowRef,
	}
	if err := sessions.Upsert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// decodeDocument reads a stored document through the sanitizer.
func decodeDocument(raw datatypes.JSON) dsl.Document {
	return dsl.SanitizeDocument([]byte(raw))
}
