package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/assistant"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
)

// AssistantService turns a prompt into a preview revision.
type AssistantService interface {
	Run(ctx context.Context, actorID uuid.UUID, in RunInput) (*RunResult, error)
}

type RunInput struct {
	PageID          uuid.UUID
	RevisionID      uuid.UUID
	Prompt          string
	SelectedBlockID string
	Mode            string
}

type RunResult struct {
	RunID              uuid.UUID       `json:"runId"`
	ProposedOperations []dsl.Operation `json:"proposedOperations"`
	ChangeSummary      string          `json:"changeSummary"`
	PreviewRevisionID  uuid.UUID       `json:"previewRevisionId"`
	Fallback           bool            `json:"fallback"`
}

type assistantService struct {
	repos     *repository.Repositories
	revisions RevisionService
	client    assistant.Client
}

// NewAssistantService wires the run tracker. A nil client means every
// prompt is answered by the fallback synthesizer.
func NewAssistantService(repos *repository.Repositories, revisions RevisionService, client assistant.Client) AssistantService {
	return &assistantService{repos: repos, revisions: revisions, client: client}
}

var _ AssistantService = (*assistantService)(nil)

// Run records the attempt, asks the model for operations, falls back to the
// synthesizer when the model has nothing usable, and commits the result as a
// preview revision. A failure after the run row exists marks it failed and is
// returned unchanged.
func (s *assistantService) Run(ctx context.Context, actorID uuid.UUID, in RunInput) (*RunResult, error) {
	logger.L().Info("assistant run called",
		zap.String("user_id", actorID.String()),
		zap.String("page_id", in.PageID.String()),
		zap.String("mode", in.Mode))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "prompt is required")
	}
	mode := in.Mode
	switch mode {
	case models.ModeChat, models.ModeVisual, models.ModeTheme:
	case "":
		mode = models.ModeChat
	default:
		return nil, appErr.New(appErr.CodeInvalid, "unknown editor mode")
	}

	run := &models.AssistantRun{
		PageID:       in.PageID,
		RevisionID:   in.RevisionID,
		UserID:       actorID,
		Prompt:       in.Prompt,
		Mode:         mode,
		ResultStatus: models.RunRunning,
	}
	if err := s.repos.Runs.Create(ctx, run); err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, actorID, run, in.SelectedBlockID)
	if err != nil {
		s.fail(ctx, run.ID, err)
		return nil, err
	}

	if _, err := saveSession(ctx, s.repos.Sessions, actorID, SelectionInput{
		PageID:          in.PageID,
		Mode:            mode,
		SelectedBlockID: in.SelectedBlockID,
		LastPrompt:      in.Prompt,
	}); err != nil {
		logger.L().Warn("save editor session failed", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	return result, nil
}

func (s *assistantService) execute(ctx context.Context, actorID uuid.UUID, run *models.AssistantRun, selected string) (*RunResult, error) {
	var base models.Revision
	if err := s.repos.Revisions.GetByID(ctx, run.RevisionID, &base); err != nil {
		return nil, appErr.NotFound(err, "Revision context not found.")
	}
	doc := decodeDocument(base.DSLDocument)

	proposal := s.propose(ctx, run, selected, doc)

	var (
		ops      []dsl.Operation
		summary  string
		fallback bool
	)
	if proposal != nil && len(proposal.Operations) > 0 {
		ops, summary = proposal.Operations, proposal.ChangeSummary
	} else {
		ops, summary = dsl.Synthesize(run.Prompt, selected, doc)
		fallback = true
	}

	applied, err := s.revisions.ApplyOperations(ctx, actorID, ApplyInput{
		PageID:         run.PageID,
		BaseRevisionID: run.RevisionID,
		Operations:     ops,
		ChangeSummary:  summary,
		Source:         run.Mode,
	})
	if err != nil {
		return nil, err
	}

	outcome := repository.RunOutcome{Status: models.RunCompleted, PreviewRevisionID: &applied.RevisionID}
	if outcome.Operations, err = encodeJSON(ops, "operations"); err != nil {
		return nil, err
	}
	if outcome.Plan, err = encodeJSON(map[string]string{"changeSummary": summary}, "plan"); err != nil {
		return nil, err
	}
	if proposal != nil {
		outcome.Provider, outcome.Model = proposal.Provider, proposal.Model
		if outcome.TokenUsage, err = encodeJSON(proposal.Usage, "token usage"); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Runs.Finish(ctx, run.ID, outcome); err != nil {
		return nil, err
	}

	logger.L().Info("assistant run completed",
		zap.String("run_id", run.ID.String()),
		zap.Int("operations", len(ops)),
		zap.Bool("fallback", fallback),
		zap.Int("revision_number", applied.RevisionNumber))
	return &RunResult{
		RunID:              run.ID,
		ProposedOperations: ops,
		ChangeSummary:      summary,
		PreviewRevisionID:  applied.RevisionID,
		Fallback:           fallback,
	}, nil
}

// propose returns nil whenever the model cannot be used.
func (s *assistantService) propose(ctx context.Context, run *models.AssistantRun, selected string, doc dsl.Document) *assistant.Proposal {
	if s.client == nil {
		return nil
	}
	req := assistant.Request{Mode: run.Mode, Prompt: run.Prompt, Document: doc}
	if selected != "" {
		req.SelectedBlockID = &selected
	}
	p, err := s.client.Propose(ctx, req)
	if err != nil {
		logger.L().Warn("assistant unavailable, using fallback", zap.String("run_id", run.ID.String()), zap.Error(err))
		return nil
	}
	return p
}

func (s *assistantService) fail(ctx context.Context, runID uuid.UUID, cause error) {
	errs, _ := encodeJSON([]string{appErr.MessageOf(cause)}, "run errors")
	// Record the failure even when the caller's context is already done.
	if err := s.repos.Runs.Finish(context.WithoutCancel(ctx), runID, repository.RunOutcome{
		Status: models.RunFailed,
		Errors: errs,
	}); err != nil {
		logger.L().Error("mark assistant run failed", zap.String("run_id", runID.String()), zap.Error(err))
		return
	}
	logger.L().Warn("assistant run failed", zap.String("run_id", runID.String()), zap.Error(cause))
}
