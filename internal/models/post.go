package models

import (
	"fmt"
	"time"
)

// MediaType identifies what a post's media key or link points at.
type MediaType string

const (
	MediaNone  MediaType = ""
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaLink  MediaType = "link"
)

// PostStatus marks moderation state. Banned posts are hidden from every feed.
type PostStatus string

const (
	PostStatusActive PostStatus = ""
	PostStatusBanned PostStatus = "banned"
)

// Post is a single post document. Likes is insertion-ordered and holds no
// duplicate user IDs; Comments and Reports are append-only embedded records.
// MediaKey is a storage object key resolved through the signed-URL bridge
// before display; for link posts it carries the external URL instead.
type Post struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	Content   string     `json:"content"`
	MediaKey  string     `json:"mediaKey,omitempty"`
	MediaType MediaType  `json:"mediaType,omitempty"`
	Likes     []string   `json:"likes"`
	Comments  []Comment  `json:"comments"`
	Reports   []Report   `json:"reports,omitempty"`
	Status    PostStatus `json:"status,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Comment is embedded in its post. The author's display fields are
// snapshotted at submission time so later profile edits do not change
// historical bylines.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarKey string    `json:"avatarKey,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report is embedded in its post. At most one per reporting user.
type Report struct {
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks a post decoded from the store. Documents are loose records
// written by many client versions, so the boundary does not trust the shape.
func (p *Post) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("post missing id")
	}
	if p.UserID == "" {
		return fmt.Errorf("post %s missing author", p.ID)
	}
	switch p.MediaType {
	case MediaNone, MediaImage, MediaVideo, MediaLink:
	default:
		return fmt.Errorf("post %s has unknown media type %q", p.ID, p.MediaType)
	}
	seen := make(map[string]bool, len(p.Likes))
	for _, uid := range p.Likes {
		if seen[uid] {
			return fmt.Errorf("post %s has duplicate like for user %s", p.ID, uid)
		}
		seen[uid] = true
	}
	return nil
}

// Banned reports whether moderation has hidden the post.
func (p *Post) Banned() bool {
	return p.Status == PostStatusBanned
}

// LikedBy reports whether the given user is in the like set.
func (p *Post) LikedBy(userID string) bool {
	for _, uid := range p.Likes {
		if uid == userID {
			return true
		}
	}
	return false
}

// ReportedBy reports whether the given user has already filed a report.
// This is the client-side duplicate check; it is not atomic.
func (p *Post) ReportedBy(userID string) bool {
	for _, r := range p.Reports {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
