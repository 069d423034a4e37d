package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")

	page, rev, err := f.revisions.CreatePage(ctx, f.admin.ID, p.ID, CreatePageInput{Title: " Launch ", Slug: "Launch Day!"})
	require.NoError(t, err)

	assert.Equal(t, "launch-day", page.Slug)
	assert.Equal(t, "Launch", page.Title)
	assert.Equal(t, models.PageStatusDraft, page.Status)
	assert.Equal(t, 1, rev.RevisionNumber)
	assert.Equal(t, models.SourceChat, rev.Source)
	assert.Equal(t, "Initial draft created.", rev.ChangeSummary)
	assert.Nil(t, rev.BaseRevisionID)
	assert.JSONEq(t, `{}`, string(rev.ThemeOverrides))

	stored := f.reloadPage(t, page.ID)
	require.NotNil(t, stored.CurrentRevisionID)
	assert.Equal(t, rev.ID, *stored.CurrentRevisionID)

	section := blockOfType(t, decodeDocument(rev.DSLDocument), "Section")
	assert.Contains(t, section.Props["content"], dsl.EditorName)

	snaps, err := f.repos.Snapshots.ListByPage(ctx, page.ID, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.SnapshotAuto, snaps[0].SnapshotType)
	assert.Equal(t, rev.ID, snaps[0].RevisionID)
}

func TestCreatePagePressVariant(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Acme")

	_, rev, err := f.revisions.CreatePage(context.Background(), f.admin.ID, p.ID, CreatePageInput{
		Title:         "News",
		Slug:          "news",
		InitialPrompt: "Write a press release about the merger",
	})
	require.NoError(t, err)
	blockOfType(t, decodeDocument(rev.DSLDocument), "PressReleaseBody")
}

func TestCreatePageRejectsDuplicateAndEmptySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	f.page(t, p.ID, "home")

	_, _, err := f.revisions.CreatePage(ctx, f.admin.ID, p.ID, CreatePageInput{Title: "Home", Slug: "HOME"})
	require.True(t, appErr.IsCode(err, appErr.CodeAlreadyExists))

	_, _, err = f.revisions.CreatePage(ctx, f.admin.ID, p.ID, CreatePageInput{Title: "x", Slug: "!!!"})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestMutationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	editor := f.user(t, "editor@example.com", models.RoleEditor)

	_, _, err := f.revisions.CreatePage(ctx, editor.ID, p.ID, CreatePageInput{Title: "Home", Slug: "home"})
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	page, rev := f.page(t, p.ID, "home")
	_, err = f.revisions.ApplyOperations(ctx, editor.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev.ID})
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestApplyOperationsEditsOneBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev1 := f.page(t, p.ID, "Launch")

	before := decodeDocument(rev1.DSLDocument)
	section := blockOfType(t, before, "Section")

	res, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{
		PageID:         page.ID,
		BaseRevisionID: rev1.ID,
		Operations: []dsl.Operation{{
			Op:            dsl.OpUpdateContent,
			TargetBlockID: section.ID,
			Payload:       map[string]any{"content": "Updated text"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RevisionNumber)
	assert.Equal(t, 1, res.Applied)

	rev2 := f.revision(t, res.RevisionID)
	assert.Equal(t, "Block changes applied.", rev2.ChangeSummary)
	assert.Equal(t, models.SourceChat, rev2.Source)
	require.NotNil(t, rev2.BaseRevisionID)
	assert.Equal(t, rev1.ID, *rev2.BaseRevisionID)

	after := decodeDocument(rev2.DSLDocument)
	require.Len(t, after.Blocks, len(before.Blocks))
	for i, b := range after.Blocks {
		if b.ID == section.ID {
			assert.Equal(t, "Updated text", b.Props["content"])
			assert.Equal(t, section.Type, b.Type)
			continue
		}
		assert.Equal(t, before.Blocks[i], b)
	}

	stored := f.reloadPage(t, page.ID)
	assert.Equal(t, res.RevisionID, *stored.CurrentRevisionID)
}

func TestApplyOperationsToleratesUnknownTargets(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Acme")
	page, rev1 := f.page(t, p.ID, "home")

	res, err := f.revisions.ApplyOperations(context.Background(), f.admin.ID, ApplyInput{
		PageID:         page.ID,
		BaseRevisionID: rev1.ID,
		Operations:     []dsl.Operation{{Op: dsl.OpRemove, TargetBlockID: "missing"}},
		ChangeSummary:  "noop",
		Source:         models.SourceVisual,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Applied)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, decodeDocument(rev1.DSLDocument).Blocks, res.Document.Blocks)
	assert.Equal(t, models.SourceVisual, f.revision(t, res.RevisionID).Source)
}

func TestApplyOperationsRejectsForeignBase(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Acme")
	page, _ := f.page(t, p.ID, "home")
	_, other := f.page(t, p.ID, "about")

	_, err := f.revisions.ApplyOperations(context.Background(), f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: other.ID})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	require.ErrorContains(t, err, "Base revision not found for this page.")
}

func TestEditingLivePageFlagsReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")
	require.NoError(t, f.repos.Pages.SetStatus(ctx, page.ID, models.PageStatusPublished))

	_, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusReview, f.reloadPage(t, page.ID).Status)
}

func TestRollbackAppendsCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev1 := f.page(t, p.ID, "home")
	hero := blockOfType(t, decodeDocument(rev1.DSLDocument), "Hero")

	base := rev1.ID
	for _, title := range []string{"Two", "Three"} {
		res, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{
			PageID:         page.ID,
			BaseRevisionID: base,
			Operations:     []dsl.Operation{{Op: dsl.OpUpdateProps, TargetBlockID: hero.ID, Payload: map[string]any{"title": title}}},
		})
		require.NoError(t, err)
		base = res.RevisionID
	}

	rev4, err := f.revisions.Rollback(ctx, f.admin.ID, page.ID, rev1.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, rev4.RevisionNumber)
	assert.Equal(t, models.SourceRollback, rev4.Source)
	assert.Equal(t, "Rollback to revision #1.", rev4.ChangeSummary)
	require.NotNil(t, rev4.BaseRevisionID)
	assert.Equal(t, base, *rev4.BaseRevisionID)
	assert.Equal(t, decodeDocument(rev1.DSLDocument), decodeDocument(rev4.DSLDocument))
	assert.Equal(t, rev4.ID, *f.reloadPage(t, page.ID).CurrentRevisionID)

	snaps, err := f.repos.Snapshots.ListByPage(ctx, page.ID, 0)
	require.NoError(t, err)
	var manual int
	for _, s := range snaps {
		if s.SnapshotType == models.SnapshotManual {
			manual++
			assert.Equal(t, rev4.ID, s.RevisionID)
		}
	}
	assert.Equal(t, 1, manual)
}

func TestRollbackRejectsForeignTarget(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Acme")
	page, _ := f.page(t, p.ID, "home")
	_, other := f.page(t, p.ID, "about")

	_, err := f.revisions.Rollback(context.Background(), f.admin.ID, page.ID, other.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestRevisionNumbersIncrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	base := rev.ID
	for want := 2; want <= 5; want++ {
		next, err := f.revisions.NextRevisionNumber(ctx, page.ID)
		require.NoError(t, err)
		require.Equal(t, want, next)

		res, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: base})
		require.NoError(t, err)
		require.Equal(t, want, res.RevisionNumber)
		base = res.RevisionID
	}

	list, err := f.revisions.ListRevisions(ctx, f.admin.ID, page.ID)
	require.NoError(t, err)
	require.Len(t, list, 5)
}

func TestConcurrentEditsGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev.ID})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers = append(numbers, res.RevisionNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(numbers)
	require.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9}, numbers)
}

func TestEditorStateAndSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	session, err := f.revisions.SelectBlock(ctx, f.admin.ID, SelectionInput{PageID: page.ID, Mode: models.ModeVisual, SelectedBlockID: "hero_1"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeVisual, session.Mode)

	_, err = f.revisions.SelectBlock(ctx, f.admin.ID, SelectionInput{PageID: page.ID, Mode: "sideways"})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	state, err := f.revisions.GetEditorState(ctx, f.admin.ID, page.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, state.Project.ID)
	require.NotNil(t, state.Revision)
	assert.Equal(t, rev.ID, state.Revision.ID)
	require.NotNil(t, state.Theme)
	assert.Equal(t, *p.DefaultThemeID, state.Theme.ID)
	require.NotNil(t, state.EditorSession)
	assert.Equal(t, "hero_1", state.EditorSession.SelectedBlockID)
	assert.Len(t, state.Snapshots, 1)
	assert.Empty(t, state.RecentRuns)
	assert.Empty(t, state.PublishLogs)

	pages, err := f.revisions.ListPages(ctx, f.admin.ID, p.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	got, err := f.revisions.GetRevision(ctx, f.admin.ID, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RevisionNumber)
}
