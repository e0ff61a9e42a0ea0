package handlers

import (
	"net/http"
)

// HealthResponse reports liveness plus the in-process operation metrics.
type HealthResponse struct {
	Status  string      `json:"status"`
	Metrics interface{} `json:"metrics"`
}

// HandleHealth reports server health and the metrics snapshot.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Metrics: s.Metrics.GetSnapshot(),
		})
	}
}
