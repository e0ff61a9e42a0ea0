package handlers

import (
	"net/http"

	"github.com/tumer294/studio2/internal/engine/actors"
)

// HandleExploreView serves the current explore page state: the four ranked
// feeds plus the resolved author directory.
func (s *Server) HandleExploreView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := s.request(s.Engine.GetExploreActor(), &actors.GetExploreViewMsg{})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandleExploreSearch updates the search query and serves the recomputed
// view. An empty q suppresses the search panel rather than returning an
// empty result list.
func (s *Server) HandleExploreSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := s.request(s.Engine.GetExploreActor(), &actors.SetSearchQueryMsg{
			Query: r.URL.Query().Get("q"),
		})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}
