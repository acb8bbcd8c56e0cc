package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaticTokenSource returns the same token forever. Used for backends with
// long-lived API keys and in tests.
type StaticTokenSource string

func (t StaticTokenSource) Token(context.Context) (string, error) { return string(t), nil }

// OAuthTokenSource obtains bearer tokens from a token endpoint with the
// client-credentials grant. The token is cached in memory only — never
// persisted — so every new process re-authenticates once, then reuses the
// cached token until it expires.
type OAuthTokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ TokenSource = (*OAuthTokenSource)(nil)

func NewOAuthTokenSource(tokenURL, clientID, clientSecret string) *OAuthTokenSource {
	return &OAuthTokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("remote: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token endpoint: %v", ErrUnauthorized, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrUnauthorized, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("remote: decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}

	s.token = payload.AccessToken
	s.expires = tokenDeadline(payload.AccessToken, payload.ExpiresIn)
	return s.token, nil
}

// tokenDeadline derives when the cached token stops being usable. The JWT
// exp claim wins when the token is a decodable JWT; otherwise expires_in is
// trusted, with a one-minute refresh margin either way.
func tokenDeadline(token string, expiresIn int) time.Time {
	if parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err == nil {
		if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time.Add(-time.Minute)
		}
	}
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn)*time.Second - time.Minute)
	}
	// Nothing to go on; re-authenticate every cycle rather than risk a
	// mid-upload rejection.
	return time.Now()
}
