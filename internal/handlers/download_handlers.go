package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/tumer294/studio2/internal/api"
)

// DownloadRequest asks the bridge for a signed URL for one storage key.
type DownloadRequest struct {
	Key string `json:"key"`
}

// HandleDownload is the primary signed-URL bridge. Validation runs first,
// then the credential check; the storage provider is never invoked unless
// all four credentials are present.
func (s *Server) HandleDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req DownloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
			s.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Valid key is required"})
			return
		}

		if !s.Config.AWS.Complete() || s.AWSPresigner == nil {
			log.Printf("Download request rejected: AWS credentials incomplete")
			s.respondJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "Server configuration error"})
			return
		}

		signedURL, err := s.AWSPresigner.PresignDownload(r.Context(), req.Key)
		if err != nil {
			log.Printf("Download error: %v", err)
			resp := api.ErrorResponse{Error: "Failed to generate download URL"}
			if !s.Config.Production() {
				resp.Details = err.Error()
			}
			s.respondJSON(w, http.StatusInternalServerError, resp)
			return
		}

		s.respondJSON(w, http.StatusOK, api.SignedURLResponse{SignedURL: signedURL})
	}
}

// HandleLegacyDownload is the structurally-duplicated R2 variant. Its client
// exists only when all four R2 credentials were present at startup, so the
// configuration check comes before any request validation.
func (s *Server) HandleLegacyDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.R2Presigner == nil {
			s.respondJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "Server not configured for file operations."})
			return
		}

		var req DownloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
			s.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Missing required field: key"})
			return
		}

		signedURL, err := s.R2Presigner.PresignDownload(r.Context(), req.Key)
		if err != nil {
			log.Printf("Error creating signed download URL: %v", err)
			resp := api.ErrorResponse{Error: "Failed to process download request"}
			if !s.Config.Production() {
				resp.Details = err.Error()
			}
			s.respondJSON(w, http.StatusInternalServerError, resp)
			return
		}

		s.respondJSON(w, http.StatusOK, api.SignedURLResponse{SignedURL: signedURL})
	}
}
