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
	"github.com/google/uuid"
)

// Message types for post card operations. Every mutation carries the viewer
// explicitly; there is no ambient session.
type (
	LikeToggleMsg struct {
		Viewer *models.User
	}

	SaveToggleMsg struct {
		Viewer *models.User
	}

	DeletePostMsg struct {
		Viewer    *models.User
		Confirmed bool
	}

	ReportPostMsg struct {
		Viewer *models.User
		Reason string
	}

	AddCommentMsg struct {
		Viewer  *models.User
		Content string
	}

	GetPostCardMsg struct{}
)

// PostCardView is the rendered state of one mounted post card. Comments are
// ordered by descending recency regardless of storage order.
type PostCardView struct {
	Post     *models.Post     `json:"post,omitempty"`
	Comments []models.Comment `json:"comments"`
	Deleted  bool             `json:"deleted"`
}

// PostDocStore is the slice of the post store a card mutates.
type PostDocStore interface {
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	AddComment(ctx context.Context, postID string, comment models.Comment) error
	AddReport(ctx context.Context, postID string, report models.Report) error
	DeletePost(ctx context.Context, postID string) error
}

// SavedPostStore toggles post IDs on the viewer's saved set.
type SavedPostStore interface {
	SavePostForUser(ctx context.Context, uid, postID string) error
	UnsavePostForUser(ctx context.Context, uid, postID string) error
}

// PostDocSource opens a live subscription over a single post document.
type PostDocSource interface {
	SubscribePost(target *actor.PID, postID string) (*realtime.Subscription, error)
}

// PostCardActor owns one mounted post card. It holds a live copy of the post
// pushed by its subscription; mutations write to the store and the local
// copy changes only when the store pushes the new document back.
type PostCardActor struct {
	postID  string
	posts   PostDocStore
	saves   SavedPostStore
	streams PostDocSource
	metrics *utils.MetricsCollector

	sub     *realtime.Subscription
	post    *models.Post
	deleted bool
}

func NewPostCardActor(postID string, posts PostDocStore, saves SavedPostStore, streams PostDocSource, metrics *utils.MetricsCollector) actor.Actor {
	return &PostCardActor{
		postID:  postID,
		posts:   posts,
		saves:   saves,
		streams: streams,
		metrics: metrics,
	}
}

// Receive handles incoming messages
func (a *PostCardActor) Receive(actorCtx actor.Context) {
	switch msg := actorCtx.Message().(type) {
	case *actor.Started:
		log.Printf("PostCardActor started for post %s", a.postID)
		sub, err := a.streams.SubscribePost(actorCtx.Self(), a.postID)
		if err != nil {
			log.Printf("PostCardActor: subscription for post %s failed: %v", a.postID, err)
			return
		}
		a.sub = sub

	case *actor.Stopping:
		log.Printf("PostCardActor stopping for post %s", a.postID)
		if a.sub != nil {
			a.sub.Close()
			a.sub = nil
		}

	case *actor.Stopped:
		log.Printf("PostCardActor stopped for post %s", a.postID)

	case *realtime.PostSnapshotMsg:
		a.post = msg.Post
		a.deleted = false

	case *realtime.PostDeletedMsg:
		a.post = nil
		a.deleted = true

	case *LikeToggleMsg:
		a.handleLikeToggle(actorCtx, msg)

	case *SaveToggleMsg:
		a.handleSaveToggle(actorCtx, msg)

	case *DeletePostMsg:
		a.handleDelete(actorCtx, msg)

	case *ReportPostMsg:
		a.handleReport(actorCtx, msg)

	case *AddCommentMsg:
		a.handleComment(actorCtx, msg)

	case *GetPostCardMsg:
		actorCtx.Respond(a.view())

	default:
		log.Printf("PostCardActor: Unknown message type: %T", msg)
	}
}

func (a *PostCardActor) handleLikeToggle(actorCtx actor.Context, msg *LikeToggleMsg) {
	startTime := time.Now()
	if err := a.requireViewerAndPost(msg.Viewer); err != nil {
		actorCtx.Respond(err)
		return
	}

	var err error
	if a.post.LikedBy(msg.Viewer.UID) {
		err = a.posts.RemoveLike(context.Background(), a.postID, msg.Viewer.UID)
	} else {
		err = a.posts.AddLike(context.Background(), a.postID, msg.Viewer.UID)
	}
	if err != nil {
		actorCtx.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("like_toggle", time.Since(startTime))
	actorCtx.Respond(true)
}

func (a *PostCardActor) handleSaveToggle(actorCtx actor.Context, msg *SaveToggleMsg) {
	startTime := time.Now()
	if err := a.requireViewerAndPost(msg.Viewer); err != nil {
		actorCtx.Respond(err)
		return
	}

	var err error
	if msg.Viewer.SavedPost(a.postID) {
		err = a.saves.UnsavePostForUser(context.Background(), msg.Viewer.UID, a.postID)
	} else {
		err = a.saves.SavePostForUser(context.Background(), msg.Viewer.UID, a.postID)
	}
	if err != nil {
		actorCtx.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("save_toggle", time.Since(startTime))
	actorCtx.Respond(true)
}

func (a *PostCardActor) handleDelete(actorCtx actor.Context, msg *DeletePostMsg) {
	startTime := time.Now()
	if err := a.requireViewerAndPost(msg.Viewer); err != nil {
		actorCtx.Respond(err)
		return
	}
	if !msg.Viewer.CanDelete(a.post) {
		actorCtx.Respond(utils.NewForbiddenError("only the author or an admin can delete this post"))
		return
	}
	if !msg.Confirmed {
		actorCtx.Respond(utils.NewInvalidInputError("deletion requires confirmation"))
		return
	}

	if err := a.posts.DeletePost(context.Background(), a.postID); err != nil {
		actorCtx.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	actorCtx.Respond(true)
}

func (a *PostCardActor) handleReport(actorCtx actor.Context, msg *ReportPostMsg) {
	startTime := time.Now()
	if err := a.requireViewerAndPost(msg.Viewer); err != nil {
		actorCtx.Respond(err)
		return
	}
	if strings.TrimSpace(msg.Reason) == "" {
		actorCtx.Respond(utils.NewInvalidInputError("report reason is required"))
		return
	}
	// Scan of the live copy, not an atomic check; matches the store's
	// relaxed semantics for concurrent reports.
	if a.post.ReportedBy(msg.Viewer.UID) {
		actorCtx.Respond(utils.NewAppError(utils.ErrDuplicate, "You have already reported this post", nil))
		return
	}

	report := models.Report{
		UserID:    msg.Viewer.UID,
		Reason:    strings.TrimSpace(msg.Reason),
		CreatedAt: time.Now(),
	}
	if err := a.posts.AddReport(context.Background(), a.postID, report); err != nil {
		actorCtx.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("report_post", time.Since(startTime))
	actorCtx.Respond(true)
}

func (a *PostCardActor) handleComment(actorCtx actor.Context, msg *AddCommentMsg) {
	startTime := time.Now()
	if err := a.requireViewerAndPost(msg.Viewer); err != nil {
		actorCtx.Respond(err)
		return
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		actorCtx.Respond(utils.NewInvalidInputError("comment text is required"))
		return
	}

	// Author fields are snapshotted now so later profile edits do not
	// rewrite historical bylines.
	comment := models.Comment{
		ID:        uuid.NewString(),
		UserID:    msg.Viewer.UID,
		Username:  msg.Viewer.Username,
		Name:      msg.Viewer.Name,
		AvatarKey: msg.Viewer.AvatarKey,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := a.posts.AddComment(context.Background(), a.postID, comment); err != nil {
		actorCtx.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("add_comment", time.Since(startTime))
	actorCtx.Respond(true)
}

func (a *PostCardActor) requireViewerAndPost(viewer *models.User) error {
	if a.deleted || a.post == nil {
		return utils.NewAppError(utils.ErrNotFound, "post not found", nil)
	}
	if viewer == nil {
		return utils.NewAppError(utils.ErrUnauthorized, "sign in required", nil)
	}
	return nil
}

func (a *PostCardActor) view() *PostCardView {
	view := &PostCardView{Deleted: a.deleted}
	if a.post == nil {
		view.Comments = []models.Comment{}
		return view
	}

	view.Post = a.post
	view.Comments = append([]models.Comment(nil), a.post.Comments...)
	sort.SliceStable(view.Comments, func(i, j int) bool {
		return view.Comments[i].CreatedAt.After(view.Comments[j].CreatedAt)
	})
	return view
}
