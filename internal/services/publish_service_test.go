package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/publisher"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, a publisher.Artifact) (*publisher.Receipt, error) {
	args := m.Called(ctx, a)
	if v := args.Get(0); v != nil {
		return v.(*publisher.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPublisher) Configured() bool {
	return m.Called().Bool(0)
}

func snapshotTypes(t *testing.T, f *fixture, page *models.Page) []string {
	t.Helper()
	snaps, err := f.repos.Snapshots.ListByPage(context.Background(), page.ID, 0)
	require.NoError(t, err)
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.SnapshotType)
	}
	return out
}

func TestPublishSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev1 := f.page(t, p.ID, "home")
	res, err := f.revisions.ApplyOperations(ctx, f.admin.ID, ApplyInput{PageID: page.ID, BaseRevisionID: rev1.ID})
	require.NoError(t, err)

	pub := &mockPublisher{}
	pub.On("Configured").Return(true)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(a publisher.Artifact) bool {
		return a.ProjectSlug == "acme" && a.PageSlug == "home" && a.FilePath == "pages/generated/home.html" &&
			a.ApprovalNote == "ship" && a.RevisionID == rev1.ID.String() &&
			strings.Contains(a.FileContent, "data-block-id")
	})).Return(&publisher.Receipt{CommitSHA: "abc123", Paths: []string{"pages/generated/home.html"}}, nil).Once()

	svc := f.publishService(pub)
	out, err := svc.Publish(ctx, f.admin.ID, PublishInput{PageID: page.ID, RevisionID: rev1.ID, ApprovalNote: "ship"})
	require.NoError(t, err)
	pub.AssertExpectations(t)
	assert.Equal(t, "abc123", out.CommitSHA)

	stored := f.reloadPage(t, page.ID)
	assert.Equal(t, models.PageStatusPublished, stored.Status)
	assert.Equal(t, rev1.ID, *stored.CurrentRevisionID)
	assert.NotNil(t, stored.PublishedAt)
	assert.NotEqual(t, res.RevisionID, *stored.CurrentRevisionID)

	logs, err := f.repos.Publishes.ListByPage(ctx, page.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, out.PublishLogID, logs[0].ID)
	assert.Equal(t, models.PublishSuccess, logs[0].Status)
	assert.Len(t, logs[0].ContentHash, 64)
	assert.Contains(t, snapshotTypes(t, f, page), models.SnapshotPrePublish)

	var paths []string
	require.NoError(t, json.Unmarshal(logs[0].Paths, &paths))
	assert.Equal(t, []string{"pages/generated/home.html"}, paths)

	live, err := f.projects.GetPublishedPage(ctx, "ACME", "home")
	require.NoError(t, err)
	assert.Equal(t, rev1.ID, live.Revision.ID)
}

func TestPublishFailureStatus(t *testing.T) {
	cases := []struct {
		name   string
		before string
		after  string
	}{
		{"draft goes to review", models.PageStatusDraft, models.PageStatusReview},
		{"live page stays live", models.PageStatusPublished, models.PageStatusPublished},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.project(t, "Acme")
			page, rev := f.page(t, p.ID, "home")
			require.NoError(t, f.repos.Pages.SetStatus(ctx, page.ID, tc.before))

			pub := &mockPublisher{}
			pub.On("Configured").Return(true)
			pub.On("Publish", mock.Anything, mock.Anything).
				Return(nil, appErr.New(appErr.CodeUnavailable, "Publish webhook failed with status 502.")).Once()

			svc := f.publishService(pub)
			_, err := svc.Publish(ctx, f.admin.ID, PublishInput{PageID: page.ID, RevisionID: rev.ID})
			require.ErrorContains(t, err, "Publish webhook failed with status 502.")

			assert.Equal(t, tc.after, f.reloadPage(t, page.ID).Status)
			logs, err := f.repos.Publishes.ListByPage(ctx, page.ID, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, models.PublishFailed, logs[0].Status)
			assert.Equal(t, "Publish webhook failed with status 502.", logs[0].Error)
			assert.Contains(t, snapshotTypes(t, f, page), models.SnapshotPrePublish)
		})
	}
}

func TestPublishUnconfigured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "Acme")
	page, rev := f.page(t, p.ID, "home")

	pub := &mockPublisher{}
	pub.On("Configured").Return(false)

	svc := f.publishService(pub)
	_, err := svc.Publish(ctx, f.admin.ID, PublishInput{PageID: page.ID, RevisionID: rev.ID})
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	stored := f.reloadPage(t, page.ID)
	assert.Equal(t, models.PageStatusDraft, stored.Status)
	assert.Equal(t, rev.ID, *stored.CurrentRevisionID)

	logs, err := f.repos.Publishes.ListByPage(ctx, page.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.PublishFailed, logs[0].Status)
}

func TestPublishRejectsForeignRevision(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Acme")
	page, _ := f.page(t, p.ID, "home")
	_, other := f.page(t, p.ID, "about")

	svc := f.publishService(&mockPublisher{})
	_, err := svc.Publish(context.Background(), f.admin.ID, PublishInput{PageID: page.ID, RevisionID: other.ID})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	assert.NotContains(t, snapshotTypes(t, f, page), models.SnapshotPrePublish)
}
