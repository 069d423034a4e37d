package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/lock"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const defaultThemeName = "Default Theme"

// ThemeService owns a project's design tokens.
type ThemeService interface {
	// Resolve returns the project's theme, or nil when it has none.
	Resolve(ctx context.Context, project *models.Project) (*models.Theme, error)
	Patch(ctx context.Context, actorID, projectID uuid.UUID, in PatchThemeInput) (*PatchThemeResult, error)
}

type PatchThemeInput struct {
	TokenPatch      map[string]any
	ThemeID         *uuid.UUID
	Name            string
	ApplyToAllPages bool
}

type PatchThemeResult struct {
	ThemeID       uuid.UUID `json:"themeId"`
	AffectedPages int       `json:"affectedPages"`
}

type themeService struct {
	repos  *repository.Repositories
	writer *revisionWriter
}

func NewThemeService(repos *repository.Repositories, locker lock.Locker, snapshots SnapshotService) ThemeService {
	return &themeService{repos: repos, writer: newRevisionWriter(repos, locker, snapshots)}
}

var _ ThemeService = (*themeService)(nil)

func (s *themeService) Resolve(ctx context.Context, project *models.Project) (*models.Theme, error) {
	if project.DefaultThemeID != nil {
		var t models.Theme
		err := s.repos.Themes.GetByID(ctx, *project.DefaultThemeID, &t)
		if err == nil {
			return &t, nil
		}
		if !appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, err
		}
		logger.L().Warn("project default theme missing, falling back to lookup",
			zap.String("project_id", project.ID.String()),
			zap.String("theme_id", project.DefaultThemeID.String()))
	}

	var t models.Theme
	if err := s.repos.Themes.GetDefaultByProject(ctx, project.ID, &t); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Patch merges TokenPatch into the project's theme. With ApplyToAllPages set,
// every page that has a current revision gets one new theme revision and one
// snapshot, in page order.
func (s *themeService) Patch(ctx context.Context, actorID, projectID uuid.UUID, in PatchThemeInput) (*PatchThemeResult, error) {
	logger.L().Info("patch theme called",
		zap.String("user_id", actorID.String()),
		zap.String("project_id", projectID.String()),
		zap.Bool("apply_to_all_pages", in.ApplyToAllPages))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	var project models.Project
	if err := s.repos.Projects.GetByID(ctx, projectID, &project); err != nil {
		return nil, err
	}

	theme, err := s.target(ctx, &project, in.ThemeID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)

	if theme == nil {
		if name == "" {
			name = defaultThemeName
		}
		created, err := createTheme(ctx, s.repos, project.ID, name, dsl.PatchTheme(dsl.DefaultThemeTokens(), in.TokenPatch), actorID)
		if err != nil {
			return nil, err
		}
		logger.L().Info("theme created from patch", zap.String("theme_id", created.ID.String()))
		return &PatchThemeResult{ThemeID: created.ID, AffectedPages: 0}, nil
	}

	merged := dsl.PatchTheme(dsl.SanitizeTheme([]byte(theme.Tokens)), in.TokenPatch)
	if name != "" {
		theme.Name = name
	}
	theme.Tokens = datatypes.JSON(dsl.MarshalTheme(merged))
	theme.UpdatedBy = actorID
	if err := s.repos.Themes.Update(ctx, theme); err != nil {
		return nil, err
	}

	result := &PatchThemeResult{ThemeID: theme.ID}
	if !in.ApplyToAllPages {
		return result, nil
	}

	pages, err := s.repos.Pages.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	stamp := time.Now().UnixMilli()
	for i := range pages {
		touched, err := s.restamp(ctx, actorID, pages[i].ID, merged, stamp)
		if err != nil {
			logger.L().Error("theme fan-out stopped",
				zap.String("page_id", pages[i].ID.String()),
				zap.Int("affected_pages", result.AffectedPages),
				zap.Error(err))
			return result, err
		}
		if touched {
			result.AffectedPages++
		}
	}

	logger.L().Info("theme patched",
		zap.String("theme_id", theme.ID.String()),
		zap.Int("affected_pages", result.AffectedPages))
	return result, nil
}

func (s *themeService) target(ctx context.Context, project *models.Project, themeID *uuid.UUID) (*models.Theme, error) {
	if themeID == nil {
		return s.Resolve(ctx, project)
	}
	var t models.Theme
	if err := s.repos.Themes.GetByID(ctx, *themeID, &t); err != nil {
		return nil, appErr.NotFound(err, "Theme not found.")
	}
	if t.ProjectID != project.ID {
		return nil, appErr.New(appErr.CodeNotFound, "Theme not found.")
	}
	return &t, nil
}

// restamp re-issues the page's current document under the new theme. The
// current revision is read under the page lock so an edit that lands during
// the fan-out is carried forward.
func (s *themeService) restamp(ctx context.Context, actorID, pageID uuid.UUID, tokens dsl.ThemeTokens, stamp int64) (bool, error) {
	rev, err := s.writer.append(ctx, pageID, func(ctx context.Context, tx *repository.Repositories, page *models.Page) (*revisionDraft, error) {
		if page.CurrentRevisionID == nil {
			return nil, nil
		}
		var current models.Revision
		if err := tx.Revisions.GetByID(ctx, *page.CurrentRevisionID, &current); err != nil {
			if appErr.IsCode(err, appErr.CodeNotFound) {
				return nil, nil
			}
			return nil, err
		}

		overrides := record(current.ThemeOverrides)
		overrides["globalThemeUpdatedAt"] = stamp
		encoded, err := encodeJSON(overrides, "theme overrides")
		if err != nil {
			return nil, err
		}
		base := current.ID
		return &revisionDraft{
			Document:       current.DSLDocument,
			ThemeOverrides: encoded,
			Summary:        "Global theme update applied.",
			Source:         models.SourceTheme,
			BaseRevisionID: &base,
			ActorID:        actorID,
			SnapshotType:   models.SnapshotAuto,
			Theme:          tokens,
		}, nil
	})
	return rev != nil, err
}

// createTheme stores a default theme and points the project at it.
func createTheme(ctx context.Context, repos *repository.Repositories, projectID uuid.UUID, name string, tokens dsl.ThemeTokens, actorID uuid.UUID) (*models.Theme, error) {
	theme := &models.Theme{
		ProjectID: projectID,
		Name:      name,
		Tokens:    datatypes.JSON(dsl.MarshalTheme(tokens)),
		IsDefault: true,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}
	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Themes.Create(ctx, theme); err != nil {
			return err
		}
		return tx.Projects.SetDefaultTheme(ctx, projectID, theme.ID)
	})
	if err != nil {
		return nil, err
	}
	return theme, nil
}

// themeTokens returns the stored tokens, or the built-in palette when the
// project has no theme.
func themeTokens(t *models.Theme) dsl.ThemeTokens {
	if t == nil {
		return dsl.DefaultThemeTokens()
	}
	return dsl.SanitizeTheme([]byte(t.Tokens))
}
