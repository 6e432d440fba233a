package github

import (
	"context"
	"crypto/rsa"
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// appJWTLifetime stays under GitHub's 10 minute cap on app JWTs.
	appJWTLifetime = 9 * time.Minute

	// clockDrift backdates the issued-at claim to tolerate clock skew.
	clockDrift = 60 * time.Second

	// tokenRefreshMargin renews an installation token this long before it
	// expires.
	tokenRefreshMargin = time.Minute
)

// AppTokenSource mints GitHub App installation tokens: a short-lived RS256
// JWT signed with the app's private key is exchanged for an installation
// access token, which is cached until shortly before expiry.
type AppTokenSource struct {
	appID          string
	installationID string
	key            *rsa.PrivateKey
	baseURL        string
	http           *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewAppTokenSource parses the PEM private key and returns a token source.
// baseURL overrides the API host for tests; empty means the public API.
func NewAppTokenSource(appID, installationID, privateKeyPEM, baseURL string) (*AppTokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse app private key: %w", err)
	}

	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	return &AppTokenSource{
		appID:          appID,
		installationID: installationID,
		key:            key,
		baseURL:        base,
		http:           &http.Client{Timeout: defaultTimeout},
		now:            time.Now,
	}, nil
}

// Token returns a valid installation access token, minting a fresh one when
// the cached token is missing or near expiry.
func (s *AppTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires.Add(-tokenRefreshMargin)) {
		return s.token, nil
	}

	appJWT, err := s.signAppJWT()
	if err != nil {
		return "", err
	}

	token, expires, err := s.exchange(ctx, appJWT)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expires = expires
	return token, nil
}

func (s *AppTokenSource) signAppJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-clockDrift)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign app jwt: %w", err)
	}
	return signed, nil
}

type accessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *AppTokenSource) exchange(ctx context.Context, appJWT string) (string, time.Time, error) {
	endpoint := fmt.Sprintf("%s/app/installations/%s/access_tokens", s.baseURL, s.installationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return "", time.Time{}, fmt.Errorf("token exchange failed: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed accessTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", time.Time{}, fmt.Errorf("parse token response: %w", err)
	}
	if parsed.Token == "" {
		return "", time.Time{}, fmt.Errorf("token exchange returned empty token")
	}

	return parsed.Token, parsed.ExpiresAt, nil
}
