// Package auth completes the redirect-based OAuth flow server-side by
// checking provider tokens against the provider's public token-info
// endpoint. The provider itself stays an external collaborator.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tumer294/studio2/internal/utils"
)

// Identity is the provider's verified view of the signed-in user.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Verifier resolves provider access tokens into identities.
type Verifier struct {
	endpoint string
	client   *http.Client
}

func NewVerifier(endpoint string) *Verifier {
	return &Verifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify exchanges an access token for the identity it represents. A token
// the provider rejects comes back as an INVALID_TOKEN error.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if v.endpoint == "" {
		return nil, utils.NewConfigMissingError("OAuth token-info endpoint is not configured")
	}
	if accessToken == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "missing access token", nil)
	}

	endpoint := fmt.Sprintf("%s?access_token=%s", v.endpoint, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.NewUpstreamError("failed to build token-info request", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, utils.NewUpstreamError("token-info request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "token rejected by provider", nil)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, utils.NewUpstreamError("failed to decode token-info response", err)
	}
	if identity.Subject == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "token-info response carries no subject", nil)
	}
	return &identity, nil
}
