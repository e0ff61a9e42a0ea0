package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tumer294/studio2/internal/api"
	"github.com/tumer294/studio2/internal/config"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/stretchr/testify/assert"
)

func authServer() *Server {
	return &Server{
		Metrics: utils.NewMetricsCollector(),
		Config: &config.Config{
			AWS:         &config.AWSStorageConfig{},
			R2:          &config.R2StorageConfig{},
			Auth:        &config.AuthConfig{JWTSecret: "test-secret", AdminEmail: "admin@example.com"},
			Environment: "development",
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSignupRejectsShortPassword(t *testing.T) {
	server := authServer()
	rec := postJSON(t, server.HandleSignup(), "/auth/signup",
		`{"email": "user@example.com", "password": "12345"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp api.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "password must be at least 6 characters", resp.Error)
}

func TestSignupRejectsMalformedEmail(t *testing.T) {
	server := authServer()
	rec := postJSON(t, server.HandleSignup(), "/auth/signup",
		`{"email": "not-an-email", "password": "secret-enough"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupRejectsInvalidBody(t *testing.T) {
	server := authServer()
	rec := postJSON(t, server.HandleSignup(), "/auth/signup", `{"email": 42}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupRejectsGet(t *testing.T) {
	server := authServer()
	req := httptest.NewRequest(http.MethodGet, "/auth/signup", nil)
	rec := httptest.NewRecorder()
	server.HandleSignup()(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
