package services

import (
	"context"
	"testing"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCaptureAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	tokens := dsl.DefaultThemeTokens()
	snap, err := f.snapshots.Capture(ctx, CaptureInput{
		PageID:     page.ID,
		RevisionID: rev.ID,
		Type:       models.SnapshotManual,
		Document:   rev.DSLDocument,
		Theme:      tokens,
		ActorID:    f.admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotManual, snap.SnapshotType)
	assert.JSONEq(t, string(dsl.MarshalTheme(tokens)), string(snap.ThemeTokens))

	odd, err := f.snapshots.Capture(ctx, CaptureInput{PageID: page.ID, RevisionID: rev.ID, Type: "weekly", Document: rev.DSLDocument})
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotAuto, odd.SnapshotType)

	// page creation wrote the first auto snapshot
	list, err := f.snapshots.List(ctx, page.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	limited, err := f.snapshots.List(ctx, page.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSnapshotCaptureRollsBackWithTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	err := f.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := f.snapshots.Within(tx).Capture(ctx, CaptureInput{PageID: page.ID, RevisionID: rev.ID, Document: rev.DSLDocument}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	list, err := f.snapshots.List(ctx, page.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEditorStateListsSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")
	_, err := f.revisions.Rollback(ctx, f.admin.ID, page.ID, rev.ID)
	require.NoError(t, err)

	state, err := f.revisions.GetEditorState(ctx, f.admin.ID, page.ID)
	require.NoError(t, err)
	require.Len(t, state.Snapshots, 2)
	types := []string{state.Snapshots[0].SnapshotType, state.Snapshots[1].SnapshotType}
	assert.ElementsMatch(t, []string{models.SnapshotAuto, models.SnapshotManual}, types)
}
