package actors

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/realtime"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

const (
	// Caps on the ranked explore feeds and the search panel.
	rankingCap = 10
	searchCap  = 12

	// Window for the trending ranking, evaluated against wall-clock time.
	trendingWindow = 7 * 24 * time.Hour
)

// Message types for explore view operations
type (
	SetSearchQueryMsg struct {
		Query string
	}

	GetExploreViewMsg struct{}
)

// PostStreamSource opens a live subscription over the whole post collection.
type PostStreamSource interface {
	SubscribePosts(target *actor.PID) (*realtime.Subscription, error)
}

// UserDirectory resolves a batch of user IDs in a single query.
type UserDirectory interface {
	GetUsersByIDs(ctx context.Context, uids []string) ([]*models.User, error)
}

// ExploreView is the rendered state of the explore page: four bounded ranked
// feeds plus the search panel. SearchResults is nil when the query is empty,
// which suppresses the panel entirely (distinct from zero matches).
type ExploreView struct {
	MostLiked     []*models.Post          `json:"mostLiked"`
	MostCommented []*models.Post          `json:"mostCommented"`
	MostRecent    []*models.Post          `json:"mostRecent"`
	Trending      []*models.Post          `json:"trending"`
	SearchResults []*models.Post          `json:"searchResults,omitempty"`
	Authors       map[string]*models.User `json:"authors"`
}

// ExploreActor owns the explore page. It holds the latest non-banned post
// snapshot, a non-evicting author directory, and the current search query,
// recomputing all feeds synchronously whenever any of them changes.
type ExploreActor struct {
	streams PostStreamSource
	users   UserDirectory
	metrics *utils.MetricsCollector
	push    func(*ExploreView)

	sub     *realtime.Subscription
	posts   []*models.Post
	authors map[string]*models.User
	query   string
	view    *ExploreView
}

// NewExploreActor builds the explore controller. push, when non-nil, is
// invoked with the fresh view after every data-driven recompute so connected
// clients see ranking changes without polling.
func NewExploreActor(streams PostStreamSource, users UserDirectory, metrics *utils.MetricsCollector, push func(*ExploreView)) actor.Actor {
	return &ExploreActor{
		streams: streams,
		users:   users,
		metrics: metrics,
		push:    push,
		authors: make(map[string]*models.User),
		view:    &ExploreView{Authors: map[string]*models.User{}},
	}
}

// Receive handles incoming messages
func (a *ExploreActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ExploreActor started")
		sub, err := a.streams.SubscribePosts(context.Self())
		if err != nil {
			// Keep the empty view; no retry is attempted.
			log.Printf("ExploreActor: post subscription failed: %v", err)
			return
		}
		a.sub = sub

	case *actor.Stopping:
		log.Printf("ExploreActor stopping")
		if a.sub != nil {
			a.sub.Close()
			a.sub = nil
		}

	case *actor.Stopped:
		log.Printf("ExploreActor stopped")

	case *realtime.PostsSnapshotMsg:
		a.handleSnapshot(msg.Posts)

	case *SetSearchQueryMsg:
		a.query = msg.Query
		a.recompute()
		context.Respond(a.view)

	case *GetExploreViewMsg:
		context.Respond(a.view)

	default:
		log.Printf("ExploreActor: Unknown message type: %T", msg)
	}
}

func (a *ExploreActor) handleSnapshot(posts []*models.Post) {
	startTime := time.Now()

	visible := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if !post.Banned() {
			visible = append(visible, post)
		}
	}
	a.posts = visible

	a.resolveAuthors()
	a.recompute()
	if a.push != nil {
		a.push(a.view)
	}
	a.metrics.AddOperationLatency("explore_snapshot", time.Since(startTime))
}

// resolveAuthors batch-fetches authors of the visible posts that are not yet
// in the directory, one query per newly-seen ID set. The directory never
// evicts for the actor's lifetime. A failed fetch logs and leaves the
// directory as it was.
func (a *ExploreActor) resolveAuthors() {
	var missing []string
	seen := make(map[string]bool)
	for _, post := range a.posts {
		if post.UserID == "" || seen[post.UserID] {
			continue
		}
		seen[post.UserID] = true
		if _, ok := a.authors[post.UserID]; !ok {
			missing = append(missing, post.UserID)
		}
	}
	if len(missing) == 0 {
		return
	}

	users, err := a.users.GetUsersByIDs(context.Background(), missing)
	if err != nil {
		log.Printf("ExploreActor: author batch fetch failed: %v", err)
		return
	}
	for _, user := range users {
		a.authors[user.UID] = user
	}
}

func (a *ExploreActor) recompute() {
	a.view = &ExploreView{
		MostLiked:     rankMostLiked(a.posts),
		MostCommented: rankMostCommented(a.posts),
		MostRecent:    rankMostRecent(a.posts),
		Trending:      rankTrending(a.posts, time.Now()),
		SearchResults: searchPosts(a.posts, a.authors, a.query),
		Authors:       a.authors,
	}
}

// rankMostLiked sorts descending by like count. The sort is stable so posts
// with equal like counts keep their arrival order.
func rankMostLiked(posts []*models.Post) []*models.Post {
	ranked := append([]*models.Post(nil), posts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Likes) > len(ranked[j].Likes)
	})
	return capPosts(ranked, rankingCap)
}

func rankMostCommented(posts []*models.Post) []*models.Post {
	ranked := append([]*models.Post(nil), posts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Comments) > len(ranked[j].Comments)
	})
	return capPosts(ranked, rankingCap)
}

func rankMostRecent(posts []*models.Post) []*models.Post {
	ranked := append([]*models.Post(nil), posts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return capPosts(ranked, rankingCap)
}

// rankTrending restricts to posts created within the trailing 7 days of now
// and orders by score = likes + 2*comments, descending.
func rankTrending(posts []*models.Post, now time.Time) []*models.Post {
	cutoff := now.Add(-trendingWindow)
	recent := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if post.CreatedAt.After(cutoff) {
			recent = append(recent, post)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return trendingScore(recent[i]) > trendingScore(recent[j])
	})
	return capPosts(recent, rankingCap)
}

func trendingScore(post *models.Post) int {
	return len(post.Likes) + 2*len(post.Comments)
}

// searchPosts matches the query case-insensitively against post content or
// the resolved author display name. An empty or whitespace query returns nil.
func searchPosts(posts []*models.Post, authors map[string]*models.User, query string) []*models.Post {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	matches := make([]*models.Post, 0)
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Content), needle) {
			matches = append(matches, post)
			continue
		}
		if author, ok := authors[post.UserID]; ok {
			if strings.Contains(strings.ToLower(author.Name), needle) {
				matches = append(matches, post)
			}
		}
	}
	return capPosts(matches, searchCap)
}

func capPosts(posts []*models.Post, limit int) []*models.Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}
