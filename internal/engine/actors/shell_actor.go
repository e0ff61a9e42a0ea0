package actors

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/realtime"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// SessionPhase tracks the authentication lifecycle of one app shell.
type SessionPhase string

const (
	PhaseUnresolved        SessionPhase = "unresolved"
	PhaseResolvingRedirect SessionPhase = "resolving_redirect"
	PhaseUnauthenticated   SessionPhase = "unauthenticated"
	PhaseProfileMissing    SessionPhase = "profile_missing"
	PhaseOnboardingPending SessionPhase = "onboarding_pending"
	PhaseSteadyState       SessionPhase = "steady_state"
)

const sidebarPostWindow = 50

var hashtagPattern = regexp.MustCompile(`#\w+`)

// Shown in the trending sidebar when the recent posts carry no hashtags.
var defaultTopics = []string{"İslam", "Günlük", "Sohbet", "Paylaşım", "Toplum"}

// Message types for session and sidebar operations
type (
	// ResolveSessionMsg completes a sign-in: the identity has already been
	// verified against the auth provider.
	ResolveSessionMsg struct {
		UID         string
		Email       string
		DisplayName string
		Language    string
	}

	// FailSessionMsg marks the redirect as unauthenticated.
	FailSessionMsg struct {
		Reason string
	}

	DismissWelcomeMsg struct{}

	GetSessionMsg struct{}

	GetSidebarsMsg struct{}
)

// SessionState is the shell's current position in the auth lifecycle.
type SessionState struct {
	Phase       SessionPhase `json:"phase"`
	User        *models.User `json:"user,omitempty"`
	RedirectTo  string       `json:"redirectTo,omitempty"`
	ShowWelcome bool         `json:"showWelcome"`
}

// Sidebars holds the shell's derived widgets.
type Sidebars struct {
	TrendingTopics []string       `json:"trendingTopics"`
	SuggestedUsers []*models.User `json:"suggestedUsers"`
	RecentActivity []string       `json:"recentActivity"`
}

// ProfileStore is the slice of the user store the shell needs.
type ProfileStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	CreateUserIfAbsent(ctx context.Context, user *models.User) (bool, error)
	SetWelcomeShown(ctx context.Context, uid string) error
	GetSuggestedUsers(ctx context.Context, excludeUID string, limit int) ([]*models.User, error)
}

// RecentPostSource opens a live subscription over the newest posts.
type RecentPostSource interface {
	SubscribeRecentPosts(target *actor.PID, limit int) (*realtime.Subscription, error)
}

// ShellActor drives one app shell: the session state machine, first-login
// profile provisioning, the welcome prompt, and the sidebar widgets.
type ShellActor struct {
	profiles   ProfileStore
	streams    RecentPostSource
	metrics    *utils.MetricsCollector
	adminEmail string
	uid        string

	sub      *realtime.Subscription
	phase    SessionPhase
	user     *models.User
	sidebars *Sidebars
}

// NewShellActor builds one app shell. uid is the caller's ID when the session
// token already identifies them (password sign-ins, returning sessions); the
// shell then resolves from the stored profile without a redirect completion.
// It is empty for the anonymous shell.
func NewShellActor(profiles ProfileStore, streams RecentPostSource, metrics *utils.MetricsCollector, adminEmail, uid string) actor.Actor {
	return &ShellActor{
		profiles:   profiles,
		streams:    streams,
		metrics:    metrics,
		uid:        uid,
		adminEmail: adminEmail,
		phase:      PhaseUnresolved,
		sidebars: &Sidebars{
			TrendingTopics: defaultTopics,
			SuggestedUsers: []*models.User{},
			RecentActivity: []string{},
		},
	}
}

// Receive handles incoming messages
func (a *ShellActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ShellActor started")
		sub, err := a.streams.SubscribeRecentPosts(context.Self(), sidebarPostWindow)
		if err != nil {
			log.Printf("ShellActor: sidebar subscription failed: %v", err)
			return
		}
		a.sub = sub

	case *actor.Stopping:
		log.Printf("ShellActor stopping")
		if a.sub != nil {
			a.sub.Close()
			a.sub = nil
		}

	case *actor.Stopped:
		log.Printf("ShellActor stopped")

	case *ResolveSessionMsg:
		a.handleResolve(context, msg)

	case *FailSessionMsg:
		log.Printf("ShellActor: session failed: %s", msg.Reason)
		a.phase = PhaseUnauthenticated
		a.user = nil
		context.Respond(a.sessionState())

	case *DismissWelcomeMsg:
		a.handleDismissWelcome(context)

	case *GetSessionMsg:
		a.ensureResolved()
		context.Respond(a.sessionState())

	case *GetSidebarsMsg:
		a.ensureResolved()
		context.Respond(a.sidebars)

	case *realtime.RecentPostsSnapshotMsg:
		a.handleRecentPosts(msg.Posts)

	default:
		log.Printf("ShellActor: Unknown message type: %T", msg)
	}
}

func (a *ShellActor) handleResolve(actorCtx actor.Context, msg *ResolveSessionMsg) {
	startTime := time.Now()
	a.phase = PhaseResolvingRedirect
	ctx := context.Background()

	user, err := a.profiles.GetUser(ctx, msg.UID)
	switch {
	case err == nil:
		a.user = user

	case utils.IsErrorCode(err, utils.ErrUserNotFound):
		a.phase = PhaseProfileMissing
		profile := a.provisionProfile(msg)
		created, err := a.profiles.CreateUserIfAbsent(ctx, profile)
		if err != nil {
			a.phase = PhaseUnresolved
			actorCtx.Respond(err)
			return
		}
		if created {
			a.user = profile
		} else {
			// Another session won the provisioning race; use its document.
			existing, err := a.profiles.GetUser(ctx, msg.UID)
			if err != nil {
				a.phase = PhaseUnresolved
				actorCtx.Respond(err)
				return
			}
			a.user = existing
		}

	default:
		a.phase = PhaseUnresolved
		actorCtx.Respond(err)
		return
	}

	if a.user.WelcomeShown {
		a.phase = PhaseSteadyState
	} else {
		a.phase = PhaseOnboardingPending
	}

	a.metrics.AddOperationLatency("resolve_session", time.Since(startTime))
	actorCtx.Respond(a.sessionState())
}

// ensureResolved loads the stored profile for token-identified sessions that
// never went through a redirect completion (password sign-ins, shells spawned
// fresh for a returning token). A failed load keeps the shell unresolved.
func (a *ShellActor) ensureResolved() {
	if a.phase != PhaseUnresolved || a.uid == "" {
		return
	}

	user, err := a.profiles.GetUser(context.Background(), a.uid)
	if err != nil {
		log.Printf("ShellActor: profile load for %s failed: %v", a.uid, err)
		return
	}
	a.user = user
	if user.WelcomeShown {
		a.phase = PhaseSteadyState
	} else {
		a.phase = PhaseOnboardingPending
	}
}

func (a *ShellActor) handleDismissWelcome(actorCtx actor.Context) {
	a.ensureResolved()
	if a.user == nil {
		actorCtx.Respond(utils.NewForbiddenError("no resolved session"))
		return
	}

	if err := a.profiles.SetWelcomeShown(context.Background(), a.user.UID); err != nil {
		actorCtx.Respond(err)
		return
	}
	a.user.WelcomeShown = true
	a.phase = PhaseSteadyState
	actorCtx.Respond(a.sessionState())
}

func (a *ShellActor) handleRecentPosts(posts []*models.Post) {
	startTime := time.Now()

	sidebars := &Sidebars{
		TrendingTopics: trendingTopics(posts),
		SuggestedUsers: []*models.User{},
		RecentActivity: recentActivity(posts, a.profiles),
	}

	if a.user != nil {
		suggested, err := a.profiles.GetSuggestedUsers(context.Background(), a.user.UID, 3)
		if err != nil {
			// Keep the previous suggestions rather than blanking the widget.
			log.Printf("ShellActor: suggested users query failed: %v", err)
			sidebars.SuggestedUsers = a.sidebars.SuggestedUsers
		} else {
			sidebars.SuggestedUsers = suggested
		}
	}

	a.sidebars = sidebars
	a.metrics.AddOperationLatency("sidebar_refresh", time.Since(startTime))
}

func (a *ShellActor) provisionProfile(msg *ResolveSessionMsg) *models.User {
	name := msg.DisplayName
	if name == "" {
		name = "New User"
	}

	role := models.RoleUser
	if a.adminEmail != "" && msg.Email == a.adminEmail {
		role = models.RoleAdmin
	}

	language := msg.Language
	if language == "" {
		language = "tr"
	}

	return &models.User{
		UID:          msg.UID,
		Name:         name,
		Username:     DeriveHandle(msg.Email, msg.DisplayName),
		Email:        msg.Email,
		Bio:          "Welcome to the community!",
		Followers:    []string{},
		Following:    []string{},
		SavedPosts:   []string{},
		Role:         role,
		Theme:        "light",
		Language:     language,
		WelcomeShown: false,
		CreatedAt:    time.Now(),
	}
}

func (a *ShellActor) sessionState() *SessionState {
	state := &SessionState{
		Phase: a.phase,
		User:  a.user,
	}
	if a.phase == PhaseUnauthenticated {
		state.RedirectTo = "/login"
	}
	if a.phase == PhaseOnboardingPending {
		state.ShowWelcome = true
	}
	return state
}

// DeriveHandle synthesizes a handle for a first-login profile: the email
// local-part stripped of non-alphanumerics, else the display name lowercased
// without whitespace, else a timestamp placeholder.
func DeriveHandle(email, displayName string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		if handle := stripNonAlphanumeric(email[:at]); handle != "" {
			return handle
		}
	}
	if handle := strings.ToLower(strings.Join(strings.Fields(displayName), "")); handle != "" {
		return handle
	}
	return fmt.Sprintf("user%d", time.Now().UnixMilli())
}

func stripNonAlphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// trendingTopics extracts `#word` tokens from the recent post window and
// ranks the five most frequent, falling back to the default topic list.
func trendingTopics(posts []*models.Post) []string {
	counts := make(map[string]int)
	var order []string
	for _, post := range posts {
		for _, match := range hashtagPattern.FindAllString(post.Content, -1) {
			tag := match[1:]
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	if len(order) == 0 {
		return defaultTopics
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 5 {
		order = order[:5]
	}
	return order
}

// recentActivity renders up to 3 lines for the newest posts, resolving each
// author through the store; failed lookups are logged and skipped.
func recentActivity(posts []*models.Post, profiles ProfileStore) []string {
	lines := make([]string, 0, 3)
	for _, post := range posts {
		if len(lines) == 3 {
			break
		}
		author, err := profiles.GetUser(context.Background(), post.UserID)
		if err != nil {
			log.Printf("ShellActor: author lookup for post %s failed: %v", post.ID, err)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s shared a new post", author.Username))
	}
	return lines
}
