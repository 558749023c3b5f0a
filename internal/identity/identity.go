// Package identity verifies OAuth access tokens against the provider's
// userinfo endpoint and returns stable account claims.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/facestudio/facestudio/internal/config"
)

// ErrTokenRejected indicates the provider refused the access token.
var ErrTokenRejected = errors.New("identity provider rejected token")

// Claims are the identity fields the application keeps per account.
type Claims struct {
	Subject   string `json:"sub"`     // stable provider-side identifier
	Email     string `json:"email"`   // may be empty when not granted
	Name      string `json:"name"`    // display name
	AvatarURL string `json:"picture"` // profile image URL
}

// Verifier exchanges an access token for identity claims.
type Verifier struct {
	userInfoURL string
	httpClient  *http.Client
}

// NewVerifier constructs a Verifier from configuration.
func NewVerifier(cfg config.IdentityConfig) *Verifier {
	url := cfg.UserInfoURL
	if url == "" {
		url = "https://www.googleapis.com/oauth2/v3/userinfo"
	}
	return &Verifier{
		userInfoURL: url,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Verify calls the userinfo endpoint with the access token and returns the
// claims. A missing subject is treated as a rejection.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (*Claims, error) {
	req, errNew := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if errNew != nil {
		return nil, errNew
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, errDo := v.httpClient.Do(req)
	if errDo != nil {
		return nil, errDo
	}
	defer resp.Body.Close()

	body, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return nil, errRead
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var claims Claims
	if errDecode := json.Unmarshal(body, &claims); errDecode != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %w", ErrTokenRejected, errDecode)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrTokenRejected)
	}
	return &claims, nil
}
