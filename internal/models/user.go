package models

import (
	"fmt"
	"time"
)

// Role controls moderation privileges.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a profile document, created on first sign-in. Followers, Following
// and SavedPosts are insertion-ordered sets of IDs.
type User struct {
	UID            string    `json:"uid"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Bio            string    `json:"bio"`
	AvatarKey      string    `json:"avatarKey"`
	CoverKey       string    `json:"coverKey"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	SavedPosts     []string  `json:"savedPosts"`
	Role           Role      `json:"role"`
	Theme          string    `json:"theme"`
	Language       string    `json:"language"`
	WelcomeShown   bool      `json:"welcomeShown"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate checks a user decoded from the store.
func (u *User) Validate() error {
	if u.UID == "" {
		return fmt.Errorf("user missing uid")
	}
	if u.Username == "" {
		return fmt.Errorf("user %s missing username", u.UID)
	}
	switch u.Role {
	case RoleUser, RoleAdmin:
	default:
		return fmt.Errorf("user %s has unknown role %q", u.UID, u.Role)
	}
	return nil
}

// IsAdmin reports whether the user carries moderation privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SavedPost reports whether the user has saved the given post.
func (u *User) SavedPost(postID string) bool {
	for _, id := range u.SavedPosts {
		if id == postID {
			return true
		}
	}
	return false
}

// CanDelete reports whether the user may delete the given post: the author
// or an admin. This is the UI-level gate; the store does not enforce it.
func (u *User) CanDelete(p *Post) bool {
	return u.UID == p.UserID || u.IsAdmin()
}
