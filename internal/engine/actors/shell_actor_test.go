package actors

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/realtime"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

type fakeProfileStore struct {
	users     map[string]*models.User
	suggested []*models.User

	// When set, CreateUserIfAbsent pretends another session created this
	// document first.
	raceDoc *models.User
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{users: make(map[string]*models.User)}
}

func (f *fakeProfileStore) GetUser(_ context.Context, uid string) (*models.User, error) {
	if user, ok := f.users[uid]; ok {
		return user, nil
	}
	return nil, utils.NewUserNotFoundError(uid)
}

func (f *fakeProfileStore) CreateUserIfAbsent(_ context.Context, user *models.User) (bool, error) {
	if f.raceDoc != nil {
		f.users[user.UID] = f.raceDoc
		return false, nil
	}
	if _, ok := f.users[user.UID]; ok {
		return false, nil
	}
	f.users[user.UID] = user
	return true, nil
}

func (f *fakeProfileStore) SetWelcomeShown(_ context.Context, uid string) error {
	user, ok := f.users[uid]
	if !ok {
		return utils.NewUserNotFoundError(uid)
	}
	user.WelcomeShown = true
	return nil
}

func (f *fakeProfileStore) GetSuggestedUsers(_ context.Context, excludeUID string, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, user := range f.suggested {
		if len(out) == limit {
			break
		}
		if user.UID == excludeUID {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

type stubRecentStream struct{}

func (stubRecentStream) SubscribeRecentPosts(*actor.PID, int) (*realtime.Subscription, error) {
	return nil, utils.NewUpstreamError("no live store in tests", nil)
}

func spawnShell(t *testing.T, profiles *fakeProfileStore, adminEmail string) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewShellActor(profiles, stubRecentStream{}, utils.NewMetricsCollector(), adminEmail, "")
	})
	return system, system.Root.Spawn(props)
}

// spawnShellFor mimics a shell spawned for a session token: the caller's ID
// is known up front and no redirect completion will arrive.
func spawnShellFor(t *testing.T, profiles *fakeProfileStore, uid string) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewShellActor(profiles, stubRecentStream{}, utils.NewMetricsCollector(), "", uid)
	})
	return system, system.Root.Spawn(props)
}

func requestSession(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) *SessionState {
	t.Helper()
	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	state, ok := result.(*SessionState)
	if !ok {
		t.Fatalf("Unexpected response type: %T (%v)", result, result)
	}
	return state
}

func TestDeriveHandle(t *testing.T) {
	assert.Equal(t, "abc", DeriveHandle("a.b+c@example.com", ""))
	assert.Equal(t, "janedoe", DeriveHandle("", "Jane Doe"))
	assert.Equal(t, "janedoe", DeriveHandle("+++@example.com", "Jane Doe"))
	assert.True(t, strings.HasPrefix(DeriveHandle("", ""), "user"))
}

func TestFirstSignInProvisionsProfile(t *testing.T) {
	profiles := newFakeProfileStore()
	system, pid := spawnShell(t, profiles, "admin@example.com")

	state := requestSession(t, system, pid, &ResolveSessionMsg{
		UID:         "uid-1",
		Email:       "a.b+c@example.com",
		DisplayName: "Ayşe",
	})

	assert.Equal(t, PhaseOnboardingPending, state.Phase)
	assert.True(t, state.ShowWelcome)
	assert.Equal(t, "abc", state.User.Username)
	assert.Equal(t, models.RoleUser, state.User.Role)
	assert.False(t, state.User.WelcomeShown)
	assert.Contains(t, profiles.users, "uid-1")
}

func TestAdminEmailGetsAdminRole(t *testing.T) {
	profiles := newFakeProfileStore()
	system, pid := spawnShell(t, profiles, "admin@example.com")

	state := requestSession(t, system, pid, &ResolveSessionMsg{
		UID:   "uid-admin",
		Email: "admin@example.com",
	})
	assert.Equal(t, models.RoleAdmin, state.User.Role)
}

func TestProvisioningRaceUsesWinningDocument(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.raceDoc = &models.User{
		UID:      "uid-1",
		Name:     "First Session",
		Username: "firstsession",
		Email:    "x@example.com",
		Role:     models.RoleUser,
	}
	system, pid := spawnShell(t, profiles, "")

	state := requestSession(t, system, pid, &ResolveSessionMsg{
		UID:         "uid-1",
		Email:       "x@example.com",
		DisplayName: "Second Session",
	})
	assert.Equal(t, "firstsession", state.User.Username)
}

func TestReturningUserSkipsOnboarding(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.users["uid-1"] = &models.User{
		UID: "uid-1", Name: "N", Username: "n", Email: "n@example.com",
		Role: models.RoleUser, WelcomeShown: true,
	}
	system, pid := spawnShell(t, profiles, "")

	state := requestSession(t, system, pid, &ResolveSessionMsg{UID: "uid-1", Email: "n@example.com"})
	assert.Equal(t, PhaseSteadyState, state.Phase)
	assert.False(t, state.ShowWelcome)
}

func TestWelcomeDismissalPersistsFlag(t *testing.T) {
	profiles := newFakeProfileStore()
	system, pid := spawnShell(t, profiles, "")

	requestSession(t, system, pid, &ResolveSessionMsg{UID: "uid-1", Email: "n@example.com"})
	state := requestSession(t, system, pid, &DismissWelcomeMsg{})

	assert.Equal(t, PhaseSteadyState, state.Phase)
	assert.True(t, profiles.users["uid-1"].WelcomeShown)
}

func TestPasswordSignInResolvesFromStoredProfile(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.users["uid-1"] = &models.User{
		UID: "uid-1", Name: "N", Username: "n", Email: "n@example.com",
		Role: models.RoleUser, WelcomeShown: false,
	}
	system, pid := spawnShellFor(t, profiles, "uid-1")

	// No ResolveSessionMsg arrives for password accounts; the first session
	// read must load the stored profile itself.
	state := requestSession(t, system, pid, &GetSessionMsg{})
	assert.Equal(t, PhaseOnboardingPending, state.Phase)
	assert.True(t, state.ShowWelcome)
	assert.Equal(t, "n", state.User.Username)
}

func TestWelcomeDismissalWithoutRedirectCompletion(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.users["uid-1"] = &models.User{
		UID: "uid-1", Name: "N", Username: "n", Email: "n@example.com",
		Role: models.RoleUser, WelcomeShown: false,
	}
	system, pid := spawnShellFor(t, profiles, "uid-1")

	// Dismissal as the very first message must not be rejected for lack of
	// a resolved session.
	state := requestSession(t, system, pid, &DismissWelcomeMsg{})
	assert.Equal(t, PhaseSteadyState, state.Phase)
	assert.True(t, profiles.users["uid-1"].WelcomeShown)
}

func TestUnknownTokenUIDStaysUnresolved(t *testing.T) {
	profiles := newFakeProfileStore()
	system, pid := spawnShellFor(t, profiles, "ghost")

	state := requestSession(t, system, pid, &GetSessionMsg{})
	assert.Equal(t, PhaseUnresolved, state.Phase)
	assert.Nil(t, state.User)
}

func TestFailedRedirectGoesToLogin(t *testing.T) {
	profiles := newFakeProfileStore()
	system, pid := spawnShell(t, profiles, "")

	state := requestSession(t, system, pid, &FailSessionMsg{Reason: "token rejected"})
	assert.Equal(t, PhaseUnauthenticated, state.Phase)
	assert.Equal(t, "/login", state.RedirectTo)
}

func TestTrendingTopicsRankedByFrequency(t *testing.T) {
	posts := []*models.Post{
		{Content: "#go is great #go #mongo"},
		{Content: "more #go and some #actors"},
	}
	topics := trendingTopics(posts)
	assert.Equal(t, "go", topics[0])
	assert.Contains(t, topics, "mongo")
	assert.Contains(t, topics, "actors")
}

func TestTrendingTopicsFallBackToDefaults(t *testing.T) {
	topics := trendingTopics([]*models.Post{{Content: "no tags here"}})
	assert.Equal(t, defaultTopics, topics)
}

func TestRecentActivitySkipsUnresolvableAuthors(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.users["u1"] = &models.User{UID: "u1", Name: "One", Username: "one", Email: "one@example.com", Role: models.RoleUser}

	posts := []*models.Post{
		{ID: "p1", UserID: "u1"},
		{ID: "p2", UserID: "ghost"},
		{ID: "p3", UserID: "u1"},
	}
	lines := recentActivity(posts, profiles)
	assert.Equal(t, []string{"one shared a new post", "one shared a new post"}, lines)
}

func TestSidebarSnapshotUpdatesWidgets(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.users["u1"] = &models.User{UID: "u1", Name: "One", Username: "one", Email: "one@example.com", Role: models.RoleUser}
	profiles.suggested = []*models.User{
		{UID: "u2", Username: "two"},
		{UID: "u3", Username: "three"},
	}
	system, pid := spawnShell(t, profiles, "")

	requestSession(t, system, pid, &ResolveSessionMsg{UID: "u1", Email: "one@example.com"})
	system.Root.Send(pid, &realtime.RecentPostsSnapshotMsg{Posts: []*models.Post{
		{ID: "p1", UserID: "u1", Content: "hello #sunrise"},
	}})

	future := system.Root.RequestFuture(pid, &GetSidebarsMsg{}, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	sidebars := result.(*Sidebars)
	assert.Equal(t, []string{"sunrise"}, sidebars.TrendingTopics)
	assert.Len(t, sidebars.SuggestedUsers, 2)
	assert.Equal(t, []string{"one shared a new post"}, sidebars.RecentActivity)
}
