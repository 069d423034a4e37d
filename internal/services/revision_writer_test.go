package services

import (
	"context"
	"testing"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/lock"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	"github.com/site-studio/engine/internal/testutil"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInterleavedFixture(t *testing.T) (*fixture, *interleavingLocker) {
	t.Helper()
	locker := &interleavingLocker{inner: lock.NewMemory()}
	return newFixtureWithLocker(t, repository.New(testutil.OpenDB(t)), locker), locker
}

func TestApplyOperationsUsesStatusReadUnderLock(t *testing.T) {
	f, locker := newInterleavedFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	// The page goes live after ApplyOperations loaded it as a draft.
	locker.before(func() {
		require.NoError(t, f.repos.Pages.SetStatus(ctx, page.ID, models.PageStatusPublished))
	})

	res, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev.ID})
	require.NoError(t, err)

	stored := f.reloadPage(t, page.ID)
	assert.Equal(t, models.PageStatusReview, stored.Status)
	assert.Equal(t, res.RevisionID, *stored.CurrentRevisionID)
}

func TestRollbackLineageUsesRevisionCurrentUnderLock(t *testing.T) {
	f, locker := newInterleavedFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev1 := f.page(t, p.ID, "home")
	rev2, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev1.ID})
	require.NoError(t, err)

	var rev3 *ApplyResult
	locker.before(func() {
		var err error
		rev3, err = f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev2.RevisionID})
		require.NoError(t, err)
	})

	rev4, err := f.revisions.Rollback(ctx, f.admin.ID, page.ID, rev1.ID)
	require.NoError(t, err)
	require.NotNil(t, rev3)
	assert.Equal(t, 4, rev4.RevisionNumber)
	require.NotNil(t, rev4.BaseRevisionID)
	assert.Equal(t, rev3.RevisionID, *rev4.BaseRevisionID)
}

func TestThemeFanOutCarriesEditLandedDuringFanOut(t *testing.T) {
	f, locker := newInterleavedFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev1 := f.page(t, p.ID, "home")
	hero := blockOfType(t, decodeDocument(rev1.DSLDocument), "Hero")

	var edited *ApplyResult
	locker.before(func() {
		var err error
		edited, err = f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{
			PageID:         page.ID,
			BaseRevisionID: rev1.ID,
			Operations:     []dsl.Operation{{Op: dsl.OpUpdateProps, TargetBlockID: hero.ID, Payload: map[string]any{"title": "Edited"}}},
		})
		require.NoError(t, err)
		require.NoError(t, f.repos.Pages.SetStatus(ctx, page.ID, models.PageStatusPublished))
	})

	res, err := f.themes.Patch(ctx, f.admin.ID, p.ID, PatchThemeInput{
		TokenPatch:      map[string]any{"colors": map[string]any{"primary": "#123456"}},
		ApplyToAllPages: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AffectedPages)

	stored := f.reloadPage(t, page.ID)
	assert.Equal(t, models.PageStatusReview, stored.Status)
	restamped := f.revision(t, *stored.CurrentRevisionID)
	require.NotNil(t, restamped.BaseRevisionID)
	assert.Equal(t, edited.RevisionID, *restamped.BaseRevisionID)
	assert.Equal(t, "Edited", blockOfType(t, decodeDocument(restamped.DSLDocument), "Hero").Props["title"])
}

func TestFailedPublishKeepsPageThatWentLive(t *testing.T) {
	f, locker := newInterleavedFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	pub := &mockPublisher{}
	pub.On("Configured").Return(true)
	pub.On("Publish", mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeUnavailable, "Publish webhook failed with status 502.")).Once()

	// Another publish succeeds while this one waits on the hook.
	locker.before(func() {
		require.NoError(t, f.repos.Pages.SetStatus(ctx, page.ID, models.PageStatusPublished))
	})

	_, err := f.publishService(pub).Publish(ctx, f.admin.ID, PublishInput{PageID: page.ID, RevisionID: rev.ID})
	require.Error(t, err)
	assert.Equal(t, models.PageStatusPublished, f.reloadPage(t, page.ID).Status)
}
