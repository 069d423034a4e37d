package services

import (
	"context"
	"testing"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectSeedsDefaultTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, theme, err := f.projects.CreateProject(ctx, f.admin.ID, &CreateProjectInput{Name: "  Acme Corp  ", Description: "Marketing"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", p.Name)
	assert.Equal(t, "acme-corp", p.Slug)
	require.NotNil(t, p.DefaultThemeID)
	assert.Equal(t, theme.ID, *p.DefaultThemeID)
	assert.Equal(t, "Default Theme", theme.Name)
	assert.Equal(t, dsl.DefaultThemeTokens(), themeTokens(theme))

	stored, err := f.projects.GetProject(ctx, f.admin.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, theme.ID, *stored.DefaultThemeID)
}

func TestCreateProjectRejectsDuplicateSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.project(t, "Acme")

	_, _, err := f.projects.CreateProject(ctx, f.admin.ID, &CreateProjectInput{Name: "Other", Slug: "ACME"})
	require.True(t, appErr.IsCode(err, appErr.CodeAlreadyExists))

	_, _, err = f.projects.CreateProject(ctx, f.admin.ID, &CreateProjectInput{Name: "!!!"})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestListProjectsCountsPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.project(t, "Acme")
	f.project(t, "Empty")
	f.page(t, a.ID, "home")
	live, _ := f.page(t, a.ID, "about")
	require.NoError(t, f.repos.Pages.SetStatus(ctx, live.ID, models.PageStatusPublished))

	list, err := f.projects.ListProjects(ctx, f.admin.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	counts := map[string][2]int64{}
	for _, s := range list {
		counts[s.Slug] = [2]int64{s.PageCount, s.PublishedCount}
	}
	assert.Equal(t, [2]int64{2, 1}, counts["acme"])
	assert.Equal(t, [2]int64{0, 0}, counts["empty"])
}

func TestProjectsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	editor := f.user(t, "editor@example.com", models.RoleEditor)

	_, err := f.projects.ListProjects(context.Background(), editor.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestGetPublishedPageHidesDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	_, err := f.projects.GetPublishedPage(ctx, "acme", "home")
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	require.NoError(t, f.repos.Pages.SetStatus(ctx, page.ID, models.PageStatusPublished))
	live, err := f.projects.GetPublishedPage(ctx, "acme", "home")
	require.NoError(t, err)
	assert.Equal(t, rev.ID, live.Revision.ID)
	assert.Len(t, live.Document.Blocks, 3)
	assert.Equal(t, dsl.DefaultThemeTokens(), live.Tokens)

	_, err = f.projects.GetPublishedPage(ctx, "acme", "missing")
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
