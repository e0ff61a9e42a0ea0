// Package realtime turns MongoDB change streams into live subscriptions:
// standing queries that push a fresh snapshot to a subscriber actor whenever
// matching data changes.
package realtime

import (
	"context"
	"log"

	"github.com/tumer294/studio2/internal/database"
	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Snapshot messages pushed to subscriber actors. Delivery order is
// guaranteed only within a single subscription.
type (
	// PostsSnapshotMsg carries the full non-banned post set.
	PostsSnapshotMsg struct {
		Posts []*models.Post
	}

	// RecentPostsSnapshotMsg carries the newest posts, capped.
	RecentPostsSnapshotMsg struct {
		Posts []*models.Post
	}

	// PostSnapshotMsg carries the current state of one post.
	PostSnapshotMsg struct {
		Post *models.Post
	}

	// PostDeletedMsg signals that the watched post no longer exists.
	PostDeletedMsg struct {
		PostID string
	}
)

// Subscription is a live query handle. Close tears down the stream and stops
// further deliveries; it is safe to call more than once.
type Subscription struct {
	ID     string
	cancel context.CancelFunc
}

func (s *Subscription) Close() {
	s.cancel()
}

// Watcher opens change streams against the document store and forwards
// re-queried snapshots to subscriber actors through the actor system.
type Watcher struct {
	db     *database.MongoDB
	system *actor.ActorSystem
}

func NewWatcher(db *database.MongoDB, system *actor.ActorSystem) *Watcher {
	return &Watcher{db: db, system: system}
}

// SubscribePosts watches the whole posts collection. The target receives an
// initial PostsSnapshotMsg immediately and a fresh one after every change.
func (w *Watcher) SubscribePosts(target *actor.PID) (*Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := w.db.Posts.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, utils.NewUpstreamError("post collection subscription failed", err)
	}

	sub := &Subscription{ID: uuid.NewString(), cancel: cancel}
	push := func() {
		posts, err := w.db.GetAllPosts(ctx)
		if err != nil {
			log.Printf("Subscription %s: post snapshot query failed: %v", sub.ID, err)
			return
		}
		w.system.Root.Send(target, &PostsSnapshotMsg{Posts: posts})
	}

	push()
	go w.pump(ctx, stream, sub.ID, func(bson.M) { push() })
	return sub, nil
}

// SubscribeRecentPosts watches the posts collection but snapshots only the
// newest limit posts, descending by creation time.
func (w *Watcher) SubscribeRecentPosts(target *actor.PID, limit int) (*Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := w.db.Posts.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, utils.NewUpstreamError("recent posts subscription failed", err)
	}

	sub := &Subscription{ID: uuid.NewString(), cancel: cancel}
	push := func() {
		posts, err := w.db.GetRecentPosts(ctx, limit)
		if err != nil {
			log.Printf("Subscription %s: recent posts query failed: %v", sub.ID, err)
			return
		}
		w.system.Root.Send(target, &RecentPostsSnapshotMsg{Posts: posts})
	}

	push()
	go w.pump(ctx, stream, sub.ID, func(bson.M) { push() })
	return sub, nil
}

// SubscribePost watches a single post document. Deletion of the document is
// delivered as a PostDeletedMsg; every other change as a PostSnapshotMsg.
func (w *Watcher) SubscribePost(target *actor.PID, postID string) (*Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: postID}}}},
	}
	stream, err := w.db.Posts.Watch(ctx, pipeline)
	if err != nil {
		cancel()
		return nil, utils.NewUpstreamError("post subscription failed", err)
	}

	sub := &Subscription{ID: uuid.NewString(), cancel: cancel}
	push := func() {
		post, err := w.db.GetPost(ctx, postID)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				w.system.Root.Send(target, &PostDeletedMsg{PostID: postID})
				return
			}
			log.Printf("Subscription %s: post %s query failed: %v", sub.ID, postID, err)
			return
		}
		w.system.Root.Send(target, &PostSnapshotMsg{Post: post})
	}

	push()
	go w.pump(ctx, stream, sub.ID, func(event bson.M) {
		if op, _ := event["operationType"].(string); op == "delete" {
			w.system.Root.Send(target, &PostDeletedMsg{PostID: postID})
			return
		}
		push()
	})
	return sub, nil
}

// pump drains one change stream until the subscription is closed or the
// stream fails. Stream failures are logged and end the subscription without
// retry; the subscriber keeps whatever state it last received.
func (w *Watcher) pump(ctx context.Context, stream *mongo.ChangeStream, subID string, onEvent func(bson.M)) {
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event bson.M
		if err := stream.Decode(&event); err != nil {
			log.Printf("Subscription %s: event decode failed: %v", subID, err)
			continue
		}
		onEvent(event)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Subscription %s: stream terminated: %v", subID, err)
	}
}
