// Package github is a rate-limited client for the subset of the GitHub REST
// API the contribution flow needs: reading company files, creating branches,
// committing content, and opening labeled pull requests.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/howtheytest/contribution-server/internal/logger"
	"github.com/howtheytest/contribution-server/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public GitHub API host.
	DefaultBaseURL = "https://api.github.com"

	// Rate limit: 5 requests per second, burst of 10. Well under GitHub's
	// secondary limits for a single installation.
	defaultRPS   = 5.0
	defaultBurst = 10

	defaultTimeout = 30 * time.Second

	apiVersion = "2022-11-28"
	userAgent  = "howtheytest-contribution-server/1.0"
)

// TokenSource supplies an API token per request, so installation tokens can
// be minted and refreshed behind the interface.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed personal-access or installation token.
func StaticTokenSource(token string) TokenSource {
	return staticTokenSource(token)
}

type staticTokenSource string

func (s staticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// Config wires a client to one repository.
type Config struct {
	// BaseURL overrides the API host, mainly for tests. Empty means the
	// public API.
	BaseURL string
	Owner   string
	Repo    string
	Tokens  TokenSource
}

// Client is a rate-limited GitHub API client scoped to a single repository.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *logger.Logger

	baseURL string
	owner   string
	repo    string
	tokens  TokenSource
}

// New creates a client.
func New(cfg Config, log *logger.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  log,
		baseURL: baseURL,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		tokens:  cfg.Tokens,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// GetContent fetches a file at path on ref and decodes its content.
// Returns ErrNotFound when the file does not exist on that ref.
func (c *Client) GetContent(ctx context.Context, path, ref string) (*File, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, path)
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	var resp contentResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, wrapError("getContent", path, err)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, wrapError("getContent", path, fmt.Errorf("decode content: %w", err))
	}

	return &File{
		Path:    resp.Path,
		SHA:     resp.SHA,
		Content: decoded,
	}, nil
}

// GetRefSHA resolves a ref like "heads/master" to its commit SHA.
func (c *Client) GetRefSHA(ctx context.Context, ref string) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/git/ref/%s", c.owner, c.repo, ref)

	var resp refResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", wrapError("getRef", ref, err)
	}
	return resp.Object.SHA, nil
}

// CreateRef creates a branch: ref is fully qualified ("refs/heads/...") and
// sha is the commit it points at.
func (c *Client) CreateRef(ctx context.Context, ref, sha string) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/git/refs", c.owner, c.repo)
	body := map[string]string{"ref": ref, "sha": sha}

	if err := c.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return wrapError("createRef", ref, err)
	}
	return nil
}

// PutFile creates or updates a file on a branch. Supplying the prior blob
// SHA guards updates against concurrent edits; a mismatch surfaces as
// ErrConflict.
func (c *Client) PutFile(ctx context.Context, opts PutFileOptions) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, opts.Path)

	body := map[string]string{
		"message": opts.Message,
		"content": base64.StdEncoding.EncodeToString(opts.Content),
		"branch":  opts.Branch,
	}
	if opts.SHA != "" {
		body["sha"] = opts.SHA
	}

	if err := c.do(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return wrapError("putFile", opts.Path, err)
	}
	return nil
}

// CreatePull opens a pull request.
func (c *Client) CreatePull(ctx context.Context, pull NewPull) (*PullRequest, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/pulls", c.owner, c.repo)
	body := map[string]string{
		"title": pull.Title,
		"body":  pull.Body,
		"head":  pull.Head,
		"base":  pull.Base,
	}

	var resp PullRequest
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, wrapError("createPull", pull.Head, err)
	}
	return &resp, nil
}

// AddAssignees assigns users to an issue or pull request.
func (c *Client) AddAssignees(ctx context.Context, number int, assignees []string) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d/assignees", c.owner, c.repo, number)
	body := map[string][]string{"assignees": assignees}

	if err := c.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return wrapError("addAssignees", fmt.Sprintf("#%d", number), err)
	}
	return nil
}

// AddLabels attaches labels to an issue or pull request.
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", c.owner, c.repo, number)
	body := map[string][]string{"labels": labels}

	if err := c.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return wrapError("addLabels", fmt.Sprintf("#%d", number), err)
	}
	return nil
}

// do executes one API request with rate limiting and auth, decoding a JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx, "github"); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("github request",
		"method", method,
		"endpoint", endpoint,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := statusToError(resp.StatusCode, respBody); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func statusToError(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrUnprocessable, string(body))
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
}
