package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")

	before := map[uuid.UUID]models.Revision{}
	for _, slug := range []string{"home", "about", "contact"} {
		page, rev := f.page(t, p.ID, slug)
		before[page.ID] = *rev
	}
	live, _ := f.page(t, p.ID, "live")
	require.NoError(t, f.repos.Pages.SetStatus(ctx, live.ID, models.PageStatusPublished))
	before[live.ID] = f.revision(t, *f.reloadPage(t, live.ID).CurrentRevisionID)

	res, err := f.themes.Patch(ctx, f.admin.ID, p.ID, PatchThemeInput{
		TokenPatch:      map[string]any{"colors": map[string]any{"primary": "#ff0000"}},
		ApplyToAllPages: true,
	})
	require.NoError(t, err)
	assert.Equal(t, *p.DefaultThemeID, res.ThemeID)
	assert.Equal(t, 4, res.AffectedPages)

	for pageID, old := range before {
		page := f.reloadPage(t, pageID)
		require.NotEqual(t, old.ID, *page.CurrentRevisionID)

		cur := f.revision(t, *page.CurrentRevisionID)
		assert.Equal(t, 2, cur.RevisionNumber)
		assert.Equal(t, models.SourceTheme, cur.Source)
		assert.Equal(t, "Global theme update applied.", cur.ChangeSummary)
		assert.Equal(t, old.ID, *cur.BaseRevisionID)
		assert.JSONEq(t, string(old.DSLDocument), string(cur.DSLDocument))
		assert.Contains(t, record(cur.ThemeOverrides), "globalThemeUpdatedAt")
	}
	assert.Equal(t, models.PageStatusReview, f.reloadPage(t, live.ID).Status)

	var theme models.Theme
	require.NoError(t, f.repos.Themes.GetByID(ctx, res.ThemeID, &theme))
	tokens := dsl.SanitizeTheme([]byte(theme.Tokens))
	assert.Equal(t, "#ff0000", tokens.Colors["primary"])
	assert.Equal(t, dsl.DefaultThemeTokens().Colors["accent"], tokens.Colors["accent"])

	snaps, err := f.repos.Snapshots.ListByPage(ctx, live.ID, 1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "#ff0000", dsl.SanitizeTheme([]byte(snaps[0].ThemeTokens)).Colors["primary"])
}

func TestThemePatchWithoutFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	res, err := f.themes.Patch(ctx, f.admin.ID, p.ID, PatchThemeInput{
		TokenPatch: map[string]any{"radius": map[string]any{"card": "0"}},
		Name:       "  Sharp  ",
	})
	require.NoError(t, err)
	assert.Zero(t, res.AffectedPages)
	assert.Equal(t, rev.ID, *f.reloadPage(t, page.ID).CurrentRevisionID)

	var theme models.Theme
	require.NoError(t, f.repos.Themes.GetByID(ctx, res.ThemeID, &theme))
	assert.Equal(t, "Sharp", theme.Name)
}

func TestThemePatchCreatesMissingTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bare := &models.Project{Name: "Bare", Slug: "bare", CreatedBy: f.admin.ID}
	require.NoError(t, f.repos.Projects.Create(ctx, bare))

	got, err := f.themes.Resolve(ctx, bare)
	require.NoError(t, err)
	require.Nil(t, got)

	res, err := f.themes.Patch(ctx, f.admin.ID, bare.ID, PatchThemeInput{
		TokenPatch:      map[string]any{"colors": map[string]any{"text": "#000"}},
		ApplyToAllPages: true,
	})
	require.NoError(t, err)
	assert.Zero(t, res.AffectedPages)

	var project models.Project
	require.NoError(t, f.repos.Projects.GetByID(ctx, bare.ID, &project))
	require.NotNil(t, project.DefaultThemeID)
	assert.Equal(t, res.ThemeID, *project.DefaultThemeID)

	theme, err := f.themes.Resolve(ctx, &project)
	require.NoError(t, err)
	assert.Equal(t, defaultThemeName, theme.Name)
	assert.Equal(t, "#000", themeTokens(theme).Colors["text"])
	assert.Equal(t, dsl.DefaultThemeTokens().Colors["primary"], themeTokens(theme).Colors["primary"])
}

func TestThemeResolveFallsBackOnStalePointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	want := *p.DefaultThemeID

	stale := uuid.New()
	p.DefaultThemeID = &stale
	got, err := f.themes.Resolve(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got.ID)
}

func TestThemePatchUnknownTheme(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Acme")
	other := f.project(t, "Other")
	missing := uuid.New()

	_, err := f.themes.Patch(context.Background(), f.admin.ID, p.ID, PatchThemeInput{ThemeID: &missing})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.themes.Patch(context.Background(), f.admin.ID, p.ID, PatchThemeInput{ThemeID: other.DefaultThemeID})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
