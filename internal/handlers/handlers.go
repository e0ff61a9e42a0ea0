package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tumer294/studio2/internal/api"
	"github.com/tumer294/studio2/internal/auth"
	"github.com/tumer294/studio2/internal/config"
	"github.com/tumer294/studio2/internal/database"
	"github.com/tumer294/studio2/internal/engine"
	"github.com/tumer294/studio2/internal/middleware"
	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/objectstore"
	"github.com/tumer294/studio2/internal/utils"
	"github.com/tumer294/studio2/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System  *actor.ActorSystem
	Context *actor.RootContext
	Engine  *engine.Engine
	Metrics *utils.MetricsCollector
	MongoDB *database.MongoDB
	Hub     *websocket.Hub
	Tokens  *middleware.TokenManager
	OAuth   *auth.Verifier
	Config  *config.Config

	// Primary bridge presigner; nil until AWS credentials are complete.
	AWSPresigner objectstore.Presigner
	// Legacy bridge presigner; nil unless all four R2 credentials are set.
	R2Presigner objectstore.Presigner

	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	mongodb *database.MongoDB,
	hub *websocket.Hub,
	tokens *middleware.TokenManager,
	oauth *auth.Verifier,
	cfg *config.Config,
	awsPresigner objectstore.Presigner,
	r2Presigner objectstore.Presigner,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		MongoDB:        mongodb,
		Hub:            hub,
		Tokens:         tokens,
		OAuth:          oauth,
		Config:         cfg,
		AWSPresigner:   awsPresigner,
		R2Presigner:    r2Presigner,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// request sends a message to an actor and waits for the reply, converting an
// AppError reply into an error return.
func (s *Server) request(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		return nil, utils.NewAppError(utils.ErrActorTimeout, "controller did not respond", err)
	}
	switch v := result.(type) {
	case *utils.AppError:
		return nil, v
	case error:
		return nil, utils.NewUpstreamError("controller reported a failure", v)
	}
	return result, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps an error onto the HTTP taxonomy. Raw upstream detail is
// exposed only outside production.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.Metrics.IncrementErrors()

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		resp := api.ErrorResponse{Error: appErr.Message}
		if !s.Config.Production() && appErr.Origin != nil {
			resp.Details = appErr.Origin.Error()
		}
		s.respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), resp)
		return
	}

	resp := api.ErrorResponse{Error: "Internal server error"}
	if !s.Config.Production() {
		resp.Details = err.Error()
	}
	s.respondJSON(w, http.StatusInternalServerError, resp)
}

// viewer loads the authenticated caller's profile for a mutation request.
func (s *Server) viewer(r *http.Request) (*models.User, error) {
	uid, err := s.requireUID(r)
	if err != nil {
		return nil, err
	}
	return s.MongoDB.GetUser(r.Context(), uid)
}

// requireUID extracts the authenticated caller's ID without touching the store.
func (s *Server) requireUID(r *http.Request) (string, error) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || uid == "" {
		return "", utils.NewAppError(utils.ErrUnauthorized, "sign in required", nil)
	}
	return uid, nil
}
