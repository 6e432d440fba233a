// Package verify validates bot-verification tokens against the Cloudflare
// Turnstile siteverify endpoint. The token is an opaque pass/fail credential
// checked before any other submission processing.
package verify

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/howtheytest/contribution-server/internal/logger"
)

// DefaultURL is Cloudflare's siteverify endpoint.
const DefaultURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

const defaultTimeout = 10 * time.Second

// Verifier checks submission tokens. With no secret configured every token
// passes; that is the development mode, where no widget issues tokens.
type Verifier struct {
	httpClient *http.Client
	endpoint   string
	secret     string
	logger     *logger.Logger
}

// Config for the verifier. An empty URL falls back to DefaultURL.
type Config struct {
	Secret string
	URL    string
}

// New creates a verifier.
func New(cfg Config, log *logger.Logger) *Verifier {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Verifier{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   endpoint,
		secret:     cfg.Secret,
		logger:     log,
	}
}

// Enabled reports whether a verification secret is configured.
func (v *Verifier) Enabled() bool { return v.secret != "" }

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a token, failing closed: an unreachable or misbehaving
// verification service rejects the submission. remoteIP is forwarded when
// known so the check can bind the token to the client.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !v.Enabled() {
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("siteverify failed: status %d", resp.StatusCode)
	}

	var body siteverifyResponse
	if err := json.UnmarshalRead(resp.Body, &body); err != nil {
		return false, fmt.Errorf("parse siteverify response: %w", err)
	}

	if !body.Success {
		v.logger.Debug("token verification rejected",
			"error_codes", body.ErrorCodes,
		)
	}
	return body.Success, nil
}
