package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tumer294/studio2/internal/api"
	"github.com/tumer294/studio2/internal/engine/actors"
	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignupRequest registers a new email/password account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// LoginRequest signs an existing account in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OAuthCallbackRequest completes the redirect flow with a provider token.
type OAuthCallbackRequest struct {
	AccessToken string `json:"accessToken"`
	Language    string `json:"language"`
}

// SessionResponse pairs a session token with the shell's resolved state.
type SessionResponse struct {
	Token   string               `json:"token,omitempty"`
	Session *actors.SessionState `json:"session"`
}

// HandleSignup registers an email/password account and provisions its
// profile document in one step.
func (s *Server) HandleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			s.respondError(w, utils.NewInvalidInputError("a valid email is required"))
			return
		}
		if len(req.Password) < 6 {
			s.respondError(w, utils.NewInvalidInputError("password must be at least 6 characters"))
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), 14)
		if err != nil {
			s.respondError(w, utils.NewUpstreamError("failed to hash password", err))
			return
		}

		role := models.RoleUser
		if s.Config.Auth.AdminEmail != "" && req.Email == s.Config.Auth.AdminEmail {
			role = models.RoleAdmin
		}

		user := &models.User{
			UID:            uuid.NewString(),
			Name:           req.Name,
			Username:       actors.DeriveHandle(req.Email, req.Name),
			Email:          req.Email,
			HashedPassword: string(hashed),
			Followers:      []string{},
			Following:      []string{},
			SavedPosts:     []string{},
			Role:           role,
			Theme:          "light",
			Language:       req.Language,
			CreatedAt:      time.Now(),
		}
		if user.Name == "" {
			user.Name = "New User"
		}
		if user.Language == "" {
			user.Language = "tr"
		}

		if _, err := s.MongoDB.GetUserByEmail(r.Context(), req.Email); err == nil {
			s.respondError(w, utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
			return
		}
		if err := s.MongoDB.CreateUser(r.Context(), user); err != nil {
			s.respondError(w, err)
			return
		}

		token, err := s.Tokens.GenerateToken(user.UID)
		if err != nil {
			s.respondError(w, utils.NewUpstreamError("failed to issue session token", err))
			return
		}

		s.respondJSON(w, http.StatusOK, api.AuthResponse{Success: true, Token: token, UserID: user.UID})
	}
}

// HandleLogin signs an email/password account in.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}

		log.Printf("HTTP Handler: Received login request for email: %s", req.Email)

		user, err := s.MongoDB.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			s.respondJSON(w, http.StatusUnauthorized, api.AuthResponse{Success: false, Error: "Invalid credentials"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
			s.respondJSON(w, http.StatusUnauthorized, api.AuthResponse{Success: false, Error: "Invalid credentials"})
			return
		}

		token, err := s.Tokens.GenerateToken(user.UID)
		if err != nil {
			s.respondError(w, utils.NewUpstreamError("failed to issue session token", err))
			return
		}

		s.respondJSON(w, http.StatusOK, api.AuthResponse{Success: true, Token: token, UserID: user.UID})
	}
}

// HandleOAuthCallback completes the redirect-based flow: the provider token
// is verified against the token-info endpoint, then the caller's shell
// resolves the session (provisioning the profile on first sign-in).
func (s *Server) HandleOAuthCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req OAuthCallbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}

		identity, err := s.OAuth.Verify(r.Context(), req.AccessToken)
		if err != nil {
			log.Printf("OAuth callback verification failed: %v", err)
			result, reqErr := s.request(s.Engine.GetAnonymousShell(), &actors.FailSessionMsg{Reason: err.Error()})
			if reqErr != nil {
				s.respondError(w, reqErr)
				return
			}
			s.respondJSON(w, http.StatusUnauthorized, SessionResponse{Session: result.(*actors.SessionState)})
			return
		}

		shell := s.Engine.ShellFor(identity.Subject)
		result, err := s.request(shell, &actors.ResolveSessionMsg{
			UID:         identity.Subject,
			Email:       identity.Email,
			DisplayName: identity.Name,
			Language:    req.Language,
		})
		if err != nil {
			s.respondError(w, err)
			return
		}

		token, err := s.Tokens.GenerateToken(identity.Subject)
		if err != nil {
			s.respondError(w, utils.NewUpstreamError("failed to issue session token", err))
			return
		}

		s.respondJSON(w, http.StatusOK, SessionResponse{
			Token:   token,
			Session: result.(*actors.SessionState),
		})
	}
}

// HandleSession reports the caller's shell state.
func (s *Server) HandleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		uid, err := s.requireUID(r)
		if err != nil {
			s.respondError(w, err)
			return
		}

		result, err := s.request(s.Engine.ShellFor(uid), &actors.GetSessionMsg{})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandleDismissWelcome persists the one-time welcome prompt dismissal.
func (s *Server) HandleDismissWelcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		uid, err := s.requireUID(r)
		if err != nil {
			s.respondError(w, err)
			return
		}

		result, err := s.request(s.Engine.ShellFor(uid), &actors.DismissWelcomeMsg{})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandleSidebars serves the shell's derived widgets.
func (s *Server) HandleSidebars() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		uid, err := s.requireUID(r)
		if err != nil {
			s.respondError(w, err)
			return
		}

		result, err := s.request(s.Engine.ShellFor(uid), &actors.GetSidebarsMsg{})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}
