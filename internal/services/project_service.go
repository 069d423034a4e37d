package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"github.com/site-studio/engine/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ProjectService manages projects and serves published pages.
type ProjectService interface {
	CreateProject(ctx context.Context, actorID uuid.UUID, input *CreateProjectInput) (*models.Project, *models.Theme, error)
	GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, actorID uuid.UUID) ([]ProjectSummary, error)
	GetPublishedPage(ctx context.Context, projectSlug, pageSlug string) (*PublishedPage, error)
}

type CreateProjectInput struct {
	Name        string
	Slug        string
	Description string
}

type ProjectSummary struct {
	models.Project
	PageCount      int64 `json:"page_count"`
	PublishedCount int64 `json:"published_count"`
}

// PublishedPage is the public view of a live page.
type PublishedPage struct {
	Project  *models.Project  `json:"project"`
	Page     *models.Page     `json:"page"`
	Revision *models.Revision `json:"revision"`
	Theme    *models.Theme    `json:"theme"`
	Document dsl.Document     `json:"dslDocument"`
	Tokens   dsl.ThemeTokens  `json:"themeTokens"`
}

type projectService struct {
	repos  *repository.Repositories
	themes ThemeService
}

func NewProjectService(repos *repository.Repositories, themes ThemeService) ProjectService {
	return &projectService{repos: repos, themes: themes}
}

// Ensure interfaces are satisfied at compile time
var _ ProjectService = (*projectService)(nil)

// CreateProject creates a project and its default theme.
func (s *projectService) CreateProject(ctx context.Context, actorID uuid.UUID, input *CreateProjectInput) (*models.Project, *models.Theme, error) {
	logger.L().Info("create project called", zap.String("user_id", actorID.String()), zap.String("name", input.Name))

	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, nil, err
	}

	slugSource := input.Slug
	if strings.TrimSpace(slugSource) == "" {
		slugSource = input.Name
	}
	slug := utils.Slugify(slugSource)
	if slug == "" {
		return nil, nil, appErr.New(appErr.CodeInvalid, "Invalid project slug.")
	}
	var dup models.Project
	err := s.repos.Projects.GetBySlug(ctx, slug, &dup)
	if err == nil {
		return nil, nil, appErr.New(appErr.CodeAlreadyExists, "Project slug already exists.")
	}
	if !appErr.IsCode(err, appErr.CodeNotFound) {
		return nil, nil, err
	}

	p := &models.Project{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
		CreatedBy:   actorID,
	}
	theme := &models.Theme{
		Name:      defaultThemeName,
		Tokens:    datatypes.JSON(dsl.MarshalTheme(dsl.DefaultThemeTokens())),
		IsDefault: true,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Projects.Create(ctx, p); err != nil {
			if appErr.IsCode(err, appErr.CodeAlreadyExists) {
				return appErr.New(appErr.CodeAlreadyExists, "Project slug already exists.")
			}
			return err
		}
		theme.ProjectID = p.ID
		if err := tx.Themes.Create(ctx, theme); err != nil {
			return err
		}
		return tx.Projects.SetDefaultTheme(ctx, p.ID, theme.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	p.DefaultThemeID = &theme.ID

	logger.L().Info("project created", zap.String("project_id", p.ID.String()), zap.String("slug", slug))
	return p, theme, nil
}

func (s *projectService) GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*models.Project, error) {
	logger.L().Info("get project", zap.String("project_id", projectID.String()), zap.String("user_id", actorID.String()))
	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	var p models.Project
	if err := s.repos.Projects.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *projectService) ListProjects(ctx context.Context, actorID uuid.UUID) ([]ProjectSummary, error) {
	logger.L().Info("list projects", zap.String("user_id", actorID.String()))
	if _, err := requireAdmin(ctx, s.repos.Users, actorID); err != nil {
		return nil, err
	}
	projects, err := s.repos.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		total, err := s.repos.Pages.CountByProject(ctx, p.ID, "")
		if err != nil {
			return nil, err
		}
		published, err := s.repos.Pages.CountByProject(ctx, p.ID, models.PageStatusPublished)
		if err != nil {
			return nil, err
		}
		out = append(out, ProjectSummary{Project: p, PageCount: total, PublishedCount: published})
	}
	return out, nil
}

// GetPublishedPage looks a live page up by slugs. Pages that are not
// published are reported as not found.
func (s *projectService) GetPublishedPage(ctx context.Context, projectSlug, pageSlug string) (*PublishedPage, error) {
	var project models.Project
	if err := s.repos.Projects.GetBySlug(ctx, utils.Slugify(projectSlug), &project); err != nil {
		return nil, err
	}
	var page models.Page
	if err := s.repos.Pages.GetBySlug(ctx, project.ID, utils.Slugify(pageSlug), &page); err != nil {
		return nil, err
	}
	if page.Status != models.PageStatusPublished || page.CurrentRevisionID == nil {
		return nil, appErr.New(appErr.CodeNotFound, "page not found")
	}
	var rev models.Revision
	if err := s.repos.Revisions.GetByID(ctx, *page.CurrentRevisionID, &rev); err != nil {
		return nil, err
	}
	theme, err := s.themes.Resolve(ctx, &project)
	if err != nil {
		return nil, err
	}
	return &PublishedPage{
		Project:  &project,
		Page:     &page,
		Revision: &rev,
		Theme:    theme,
		Document: decodeDocument(rev.DSLDocument),
		Tokens:   themeTokens(theme),
	}, nil
}
