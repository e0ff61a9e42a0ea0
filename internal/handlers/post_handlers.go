package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/tumer294/studio2/internal/engine/actors"
	"github.com/tumer294/studio2/internal/media"
	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// CreatePostRequest submits a new post. MediaKey is a storage key for image
// and video posts, or the external URL for link posts.
type CreatePostRequest struct {
	Content   string `json:"content"`
	MediaKey  string `json:"mediaKey"`
	MediaType string `json:"mediaType"`
}

// PostMutationRequest carries the shared fields of the card mutations.
type PostMutationRequest struct {
	PostID    string `json:"postId"`
	Reason    string `json:"reason"`
	Content   string `json:"content"`
	Confirmed bool   `json:"confirmed"`
}

// PostCardResponse is a mounted card plus its resolved media: a transient
// signed URL for stored keys, or a link embed classification.
type PostCardResponse struct {
	*actors.PostCardView
	MediaURL string       `json:"mediaUrl,omitempty"`
	Embed    *media.Embed `json:"embed,omitempty"`
}

// MutationResponse acknowledges a card mutation.
type MutationResponse struct {
	Success bool `json:"success"`
}

// HandleCreatePost stores a new post document under the caller's identity.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		startTime := time.Now()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, err := s.viewer(r)
		if err != nil {
			s.respondError(w, err)
			return
		}

		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		if req.Content == "" && req.MediaKey == "" {
			s.respondError(w, utils.NewInvalidInputError("post needs content or media"))
			return
		}
		mediaType := models.MediaType(req.MediaType)
		switch mediaType {
		case models.MediaNone, models.MediaImage, models.MediaVideo, models.MediaLink:
		default:
			s.respondError(w, utils.NewInvalidInputError("unknown media type"))
			return
		}

		post := &models.Post{
			ID:        uuid.NewString(),
			UserID:    viewer.UID,
			Username:  viewer.Username,
			Content:   req.Content,
			MediaKey:  req.MediaKey,
			MediaType: mediaType,
			Likes:     []string{},
			Comments:  []models.Comment{},
			Reports:   []models.Report{},
			CreatedAt: time.Now(),
		}
		if err := s.MongoDB.SavePost(r.Context(), post); err != nil {
			s.respondError(w, err)
			return
		}

		if s.Hub != nil {
			s.Hub.BroadcastFrame("post_created", post)
		}

		s.Metrics.AddOperationLatency("create_post", time.Since(startTime))
		s.respondJSON(w, http.StatusCreated, post)
	}
}

// HandleViewPost mounts (or revisits) a post card and serves its live state
// with resolved media.
func (s *Server) HandleViewPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		postID := r.URL.Query().Get("id")
		if postID == "" {
			s.respondError(w, utils.NewInvalidInputError("post id is required"))
			return
		}

		result, err := s.request(s.Engine.MountPostCard(postID), &actors.GetPostCardMsg{})
		if err != nil {
			s.respondError(w, err)
			return
		}
		view := result.(*actors.PostCardView)

		resp := PostCardResponse{PostCardView: view}
		if view.Post != nil {
			switch view.Post.MediaType {
			case models.MediaImage, models.MediaVideo:
				resp.MediaURL = s.resolveMediaURL(r.Context(), view.Post.MediaKey)
			case models.MediaLink:
				embed := media.ClassifyLink(view.Post.MediaKey)
				resp.Embed = &embed
			}
		}
		s.respondJSON(w, http.StatusOK, resp)
	}
}

// HandleUnmountPost stops a card actor, tearing down its subscription.
func (s *Server) HandleUnmountPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req PostMutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
			s.respondError(w, utils.NewInvalidInputError("post id is required"))
			return
		}
		s.Engine.UnmountPostCard(req.PostID)
		s.respondJSON(w, http.StatusOK, MutationResponse{Success: true})
	}
}

// HandleLikePost toggles the caller's like on a post.
func (s *Server) HandleLikePost() http.HandlerFunc {
	return s.cardMutation("like_post", func(viewer *models.User, req *PostMutationRequest) interface{} {
		return &actors.LikeToggleMsg{Viewer: viewer}
	})
}

// HandleSavePost toggles the post in the caller's saved list.
func (s *Server) HandleSavePost() http.HandlerFunc {
	return s.cardMutation("save_post", func(viewer *models.User, req *PostMutationRequest) interface{} {
		return &actors.SaveToggleMsg{Viewer: viewer}
	})
}

// HandleDeletePost deletes a post after ownership and confirmation checks.
func (s *Server) HandleDeletePost() http.HandlerFunc {
	return s.cardMutation("delete_post", func(viewer *models.User, req *PostMutationRequest) interface{} {
		return &actors.DeletePostMsg{Viewer: viewer, Confirmed: req.Confirmed}
	})
}

// HandleReportPost files a report, at most one per user per post.
func (s *Server) HandleReportPost() http.HandlerFunc {
	return s.cardMutation("report_post", func(viewer *models.User, req *PostMutationRequest) interface{} {
		return &actors.ReportPostMsg{Viewer: viewer, Reason: req.Reason}
	})
}

// HandleCommentPost appends a comment and notifies the post's author.
func (s *Server) HandleCommentPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		startTime := time.Now()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, err := s.viewer(r)
		if err != nil {
			s.respondError(w, err)
			return
		}
		var req PostMutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
			s.respondError(w, utils.NewInvalidInputError("post id is required"))
			return
		}

		pid := s.Engine.MountPostCard(req.PostID)
		if _, err := s.request(pid, &actors.AddCommentMsg{Viewer: viewer, Content: req.Content}); err != nil {
			s.respondError(w, err)
			return
		}

		s.notifyAuthor(pid, viewer, "commented on your post")

		s.Metrics.AddOperationLatency("comment_post", time.Since(startTime))
		s.respondJSON(w, http.StatusOK, MutationResponse{Success: true})
	}
}

// cardMutation is the shared decode/mount/request path of the card mutations.
func (s *Server) cardMutation(op string, build func(viewer *models.User, req *PostMutationRequest) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		startTime := time.Now()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, err := s.viewer(r)
		if err != nil {
			s.respondError(w, err)
			return
		}
		var req PostMutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
			s.respondError(w, utils.NewInvalidInputError("post id is required"))
			return
		}

		pid := s.Engine.MountPostCard(req.PostID)
		if _, err := s.request(pid, build(viewer, &req)); err != nil {
			s.respondError(w, err)
			return
		}

		s.Metrics.AddOperationLatency(op, time.Since(startTime))
		s.respondJSON(w, http.StatusOK, MutationResponse{Success: true})
	}
}

// resolveMediaURL exchanges a storage key for a transient download URL
// through whichever presigner is configured. Failures degrade to no media
// rather than failing the whole card.
func (s *Server) resolveMediaURL(ctx context.Context, key string) string {
	presigner := s.AWSPresigner
	if presigner == nil {
		presigner = s.R2Presigner
	}
	if presigner == nil || key == "" {
		return ""
	}
	url, err := presigner.PresignDownload(ctx, key)
	if err != nil {
		log.Printf("HTTP Handler: presign failed for key %s: %v", key, err)
		return ""
	}
	return url
}

// notifyAuthor pushes a direct frame to the post's author, skipping
// self-notification. The author ID comes from the card's live copy.
func (s *Server) notifyAuthor(pid *actor.PID, viewer *models.User, message string) {
	if s.Hub == nil {
		return
	}
	result, err := s.request(pid, &actors.GetPostCardMsg{})
	if err != nil {
		log.Printf("HTTP Handler: could not resolve post author for notification: %v", err)
		return
	}
	view := result.(*actors.PostCardView)
	if view.Post == nil || view.Post.UserID == viewer.UID {
		return
	}
	s.Hub.SendFrameToUser(view.Post.UserID, "notification", map[string]string{
		"postId":   view.Post.ID,
		"username": viewer.Username,
		"message":  message,
	})
}
