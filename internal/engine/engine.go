// Package engine wires the view controllers together: one explore feed, one
// shell per signed-in user, and one post card per mounted post.
package engine

import (
	"sync"

	"github.com/tumer294/studio2/internal/database"
	"github.com/tumer294/studio2/internal/engine/actors"
	"github.com/tumer294/studio2/internal/realtime"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates the actor-based view controllers.
type Engine struct {
	system  *actor.ActorSystem
	db      *database.MongoDB
	watcher *realtime.Watcher
	metrics *utils.MetricsCollector

	adminEmail string

	exploreActor   *actor.PID
	anonymousShell *actor.PID

	mu        sync.Mutex
	shells    map[string]*actor.PID
	postCards map[string]*actor.PID
}

// NewEngine spawns the long-lived controllers. pushExplore, when non-nil,
// receives every recomputed explore view for fan-out to connected clients.
func NewEngine(system *actor.ActorSystem, db *database.MongoDB, watcher *realtime.Watcher, metrics *utils.MetricsCollector, adminEmail string, pushExplore func(*actors.ExploreView)) *Engine {
	e := &Engine{
		system:     system,
		db:         db,
		watcher:    watcher,
		metrics:    metrics,
		adminEmail: adminEmail,
		shells:     make(map[string]*actor.PID),
		postCards:  make(map[string]*actor.PID),
	}

	exploreProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewExploreActor(watcher, db, metrics, pushExplore)
	})
	e.exploreActor = system.Root.Spawn(exploreProps)

	// Failed redirects resolve through a shared shell with no identity.
	e.anonymousShell = system.Root.Spawn(e.shellProps(""))

	return e
}

func (e *Engine) shellProps(uid string) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return actors.NewShellActor(e.db, e.watcher, e.metrics, e.adminEmail, uid)
	})
}

// GetExploreActor returns the PID of the explore feed actor.
func (e *Engine) GetExploreActor() *actor.PID {
	return e.exploreActor
}

// GetAnonymousShell returns the shell that handles unauthenticated sessions.
func (e *Engine) GetAnonymousShell() *actor.PID {
	return e.anonymousShell
}

// ShellFor returns the shell actor for one signed-in user, spawning it on
// first use.
func (e *Engine) ShellFor(uid string) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.shells[uid]; ok {
		return pid
	}
	pid := e.system.Root.Spawn(e.shellProps(uid))
	e.shells[uid] = pid
	return pid
}

// MountPostCard returns the card actor for one post, spawning it (and its
// single-document subscription) on first mount.
func (e *Engine) MountPostCard(postID string) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.postCards[postID]; ok {
		return pid
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostCardActor(postID, e.db, e.db, e.watcher, e.metrics)
	})
	pid := e.system.Root.Spawn(props)
	e.postCards[postID] = pid
	return pid
}

// UnmountPostCard stops a card actor; its Stopping hook tears down the
// document subscription.
func (e *Engine) UnmountPostCard(postID string) {
	e.mu.Lock()
	pid, ok := e.postCards[postID]
	if ok {
		delete(e.postCards, postID)
	}
	e.mu.Unlock()

	if ok {
		e.system.Root.Stop(pid)
	}
}

// Shutdown stops every spawned controller.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.system.Root.Stop(e.exploreActor)
	e.system.Root.Stop(e.anonymousShell)
	for _, pid := range e.shells {
		e.system.Root.Stop(pid)
	}
	for _, pid := range e.postCards {
		e.system.Root.Stop(pid)
	}
}
