package actors

import (
	"context"
	"testing"
	"time"

	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/realtime"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

// fakePostStore keeps one post in memory and applies mutations the way the
// document store would, so toggles can be asserted end to end.
type fakePostStore struct {
	post    *models.Post
	deleted bool
}

func (f *fakePostStore) AddLike(_ context.Context, _, userID string) error {
	if !f.post.LikedBy(userID) {
		f.post.Likes = append(f.post.Likes, userID)
	}
	return nil
}

func (f *fakePostStore) RemoveLike(_ context.Context, _, userID string) error {
	likes := f.post.Likes[:0]
	for _, uid := range f.post.Likes {
		if uid != userID {
			likes = append(likes, uid)
		}
	}
	f.post.Likes = likes
	return nil
}

func (f *fakePostStore) AddComment(_ context.Context, _ string, comment models.Comment) error {
	f.post.Comments = append(f.post.Comments, comment)
	return nil
}

func (f *fakePostStore) AddReport(_ context.Context, _ string, report models.Report) error {
	f.post.Reports = append(f.post.Reports, report)
	return nil
}

func (f *fakePostStore) DeletePost(_ context.Context, _ string) error {
	f.deleted = true
	return nil
}

type fakeSavedStore struct {
	saved map[string]bool
}

func (f *fakeSavedStore) SavePostForUser(_ context.Context, _, postID string) error {
	f.saved[postID] = true
	return nil
}

func (f *fakeSavedStore) UnsavePostForUser(_ context.Context, _, postID string) error {
	delete(f.saved, postID)
	return nil
}

type stubPostDocSource struct{}

func (stubPostDocSource) SubscribePost(*actor.PID, string) (*realtime.Subscription, error) {
	return nil, utils.NewUpstreamError("no live store in tests", nil)
}

func spawnPostCard(t *testing.T, post *models.Post, store *fakePostStore, saves *fakeSavedStore) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostCardActor(post.ID, store, saves, stubPostDocSource{}, utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)
	system.Root.Send(pid, &realtime.PostSnapshotMsg{Post: post})
	return system, pid
}

func request(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return result
}

func cardFixture() (*models.Post, *fakePostStore, *fakeSavedStore, *models.User) {
	post := &models.Post{
		ID:        "post-1",
		UserID:    "author-1",
		Username:  "author",
		Content:   "hello",
		CreatedAt: time.Now(),
	}
	viewer := &models.User{
		UID: "viewer-1", Name: "Viewer One", Username: "viewer",
		Email: "v@example.com", AvatarKey: "avatars/v.png", Role: models.RoleUser,
	}
	return post, &fakePostStore{post: post}, &fakeSavedStore{saved: map[string]bool{}}, viewer
}

func TestLikeToggleRoundTrips(t *testing.T) {
	post, store, saves, viewer := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	result := request(t, system, pid, &LikeToggleMsg{Viewer: viewer})
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"viewer-1"}, store.post.Likes)

	// The live copy must reflect the store push before the second toggle
	// reads it; there is no optimistic local update.
	system.Root.Send(pid, &realtime.PostSnapshotMsg{Post: store.post})

	result = request(t, system, pid, &LikeToggleMsg{Viewer: viewer})
	assert.Equal(t, true, result)
	assert.Empty(t, store.post.Likes)
}

func TestMutationsRequireAuthentication(t *testing.T) {
	post, store, saves, _ := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	result := request(t, system, pid, &LikeToggleMsg{Viewer: nil})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", result)
	}
	assert.Equal(t, utils.ErrUnauthorized, appErr.Code)
}

func TestSaveToggleTargetsViewerDocument(t *testing.T) {
	post, store, saves, viewer := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	request(t, system, pid, &SaveToggleMsg{Viewer: viewer})
	assert.True(t, saves.saved["post-1"])

	viewer.SavedPosts = []string{"post-1"}
	request(t, system, pid, &SaveToggleMsg{Viewer: viewer})
	assert.False(t, saves.saved["post-1"])
}

func TestDeleteRequiresOwnershipAndConfirmation(t *testing.T) {
	post, store, saves, viewer := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	result := request(t, system, pid, &DeletePostMsg{Viewer: viewer, Confirmed: true})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
	assert.False(t, store.deleted)

	author := &models.User{UID: "author-1", Name: "A", Username: "author", Email: "a@example.com", Role: models.RoleUser}
	result = request(t, system, pid, &DeletePostMsg{Viewer: author, Confirmed: false})
	appErr = result.(*utils.AppError)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
	assert.False(t, store.deleted)

	result = request(t, system, pid, &DeletePostMsg{Viewer: author, Confirmed: true})
	assert.Equal(t, true, result)
	assert.True(t, store.deleted)
}

func TestAdminMayDeleteAnyPost(t *testing.T) {
	post, store, saves, _ := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	admin := &models.User{UID: "admin-1", Name: "Admin", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	result := request(t, system, pid, &DeletePostMsg{Viewer: admin, Confirmed: true})
	assert.Equal(t, true, result)
	assert.True(t, store.deleted)
}

func TestSecondReportFromSameUserBlocked(t *testing.T) {
	post, store, saves, viewer := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	result := request(t, system, pid, &ReportPostMsg{Viewer: viewer, Reason: "spam"})
	assert.Equal(t, true, result)
	assert.Len(t, store.post.Reports, 1)

	system.Root.Send(pid, &realtime.PostSnapshotMsg{Post: store.post})

	result = request(t, system, pid, &ReportPostMsg{Viewer: viewer, Reason: "spam again"})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrDuplicate, appErr.Code)
	assert.Len(t, store.post.Reports, 1)
}

func TestCommentSnapshotsAuthorFields(t *testing.T) {
	post, store, saves, viewer := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	request(t, system, pid, &AddCommentMsg{Viewer: viewer, Content: "  nice post  "})
	assert.Len(t, store.post.Comments, 1)

	got := store.post.Comments[0]
	assert.Equal(t, "nice post", got.Content)
	assert.Equal(t, "viewer", got.Username)
	assert.Equal(t, "Viewer One", got.Name)
	assert.Equal(t, "avatars/v.png", got.AvatarKey)

	// A later profile edit must not rewrite the stored byline.
	viewer.Name = "Renamed"
	assert.Equal(t, "Viewer One", store.post.Comments[0].Name)
}

func TestCommentsRenderNewestFirst(t *testing.T) {
	post, store, saves, _ := cardFixture()
	base := time.Now()
	post.Comments = []models.Comment{
		{ID: "c1", UserID: "u", Content: "oldest", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "c2", UserID: "u", Content: "newest", CreatedAt: base},
		{ID: "c3", UserID: "u", Content: "middle", CreatedAt: base.Add(-time.Hour)},
	}
	system, pid := spawnPostCard(t, post, store, saves)

	result := request(t, system, pid, &GetPostCardMsg{})
	view := result.(*PostCardView)
	assert.Equal(t, "newest", view.Comments[0].Content)
	assert.Equal(t, "middle", view.Comments[1].Content)
	assert.Equal(t, "oldest", view.Comments[2].Content)

	// Storage order is untouched.
	assert.Equal(t, "oldest", post.Comments[0].Content)
}

func TestDeletedPostRejectsMutations(t *testing.T) {
	post, store, saves, viewer := cardFixture()
	system, pid := spawnPostCard(t, post, store, saves)

	system.Root.Send(pid, &realtime.PostDeletedMsg{PostID: post.ID})

	result := request(t, system, pid, &LikeToggleMsg{Viewer: viewer})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrNotFound, appErr.Code)

	view := request(t, system, pid, &GetPostCardMsg{}).(*PostCardView)
	assert.True(t, view.Deleted)
}
