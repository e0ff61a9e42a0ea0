package handlers

import (
	"context"
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

// fakePresigner records whether the storage provider was invoked.
type fakePresigner struct {
	calls int
	url   string
	err   error
}

func (f *fakePresigner) PresignDownload(_ context.Context, key string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url + key, nil
}

func downloadServer(awsComplete bool, presigner *fakePresigner, production bool) *Server {
	aws := &config.AWSStorageConfig{}
	if awsComplete {
		aws = &config.AWSStorageConfig{
			Region: "us-east-1", AccessKey: "ak", SecretKey: "sk", Bucket: "media",
		}
	}
	env := "development"
	if production {
		env = "production"
	}
	return &Server{
		Metrics: utils.NewMetricsCollector(),
		Config: &config.Config{
			AWS:         aws,
			R2:          &config.R2StorageConfig{},
			Environment: env,
		},
		AWSPresigner: presigner,
	}
}

func postDownload(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestDownloadRejectsMissingKey(t *testing.T) {
	presigner := &fakePresigner{url: "https://signed.example/"}
	server := downloadServer(true, presigner, false)

	rec := postDownload(t, server.HandleDownload(), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, presigner.calls)

	rec = postDownload(t, server.HandleDownload(), `{"key": 42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, presigner.calls)
}

func TestDownloadFailsOnIncompleteCredentialsWithoutInvokingProvider(t *testing.T) {
	presigner := &fakePresigner{url: "https://signed.example/"}
	server := downloadServer(false, presigner, false)

	rec := postDownload(t, server.HandleDownload(), `{"key":"uploads/a.png"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, presigner.calls, "storage provider must not be invoked")

	var resp api.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Server configuration error", resp.Error)
}

func TestDownloadReturnsSignedURL(t *testing.T) {
	presigner := &fakePresigner{url: "https://signed.example/"}
	server := downloadServer(true, presigner, false)

	rec := postDownload(t, server.HandleDownload(), `{"key":"uploads/a.png"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, presigner.calls)

	var resp api.SignedURLResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://signed.example/uploads/a.png", resp.SignedURL)
}

func TestDownloadDetailGatedToNonProduction(t *testing.T) {
	boom := utils.NewUpstreamError("failed to sign download URL", assert.AnError)

	presigner := &fakePresigner{err: boom}
	server := downloadServer(true, presigner, false)
	rec := postDownload(t, server.HandleDownload(), `{"key":"k"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp api.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate download URL", resp.Error)
	assert.NotEmpty(t, resp.Details)

	server = downloadServer(true, presigner, true)
	rec = postDownload(t, server.HandleDownload(), `{"key":"k"}`)
	resp = api.ErrorResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate download URL", resp.Error)
	assert.Empty(t, resp.Details, "production responses hide raw detail")
}

func TestLegacyDownloadWithoutClient(t *testing.T) {
	server := downloadServer(true, &fakePresigner{}, false)
	server.R2Presigner = nil

	rec := postDownload(t, server.HandleLegacyDownload(), `{"key":"k"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp api.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Server not configured for file operations.", resp.Error)
}

func TestLegacyDownloadValidatesKeyAfterConfiguration(t *testing.T) {
	presigner := &fakePresigner{url: "https://r2.example/"}
	server := downloadServer(true, &fakePresigner{}, false)
	server.R2Presigner = presigner

	rec := postDownload(t, server.HandleLegacyDownload(), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, presigner.calls)

	rec = postDownload(t, server.HandleLegacyDownload(), `{"key":"covers/c.jpg"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp api.SignedURLResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://r2.example/covers/c.jpg", resp.SignedURL)
}
