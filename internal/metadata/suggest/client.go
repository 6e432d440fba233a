// Package suggest implements the metadata suggestion client: given a URL it
// asks the extraction service for a best-effort title/type/topics guess to
// pre-fill a contribution draft.
//
// The call is advisory. Failure, timeout, or an empty result must never block
// typing or submission; callers swallow the error and carry on with no
// pre-fill. One attempt per URL-entry event, no retries.
package suggest

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the hard cap on a suggestion attempt. After it the
// attempt is treated as failed, not hung.
const DefaultTimeout = 10 * time.Second

// Suggestion is a best-effort metadata guess. Any field may be empty; the
// caller treats the whole value as optional pre-fill, never as authoritative.
type Suggestion struct {
	Title  string
	Type   string
	Topics []string
}

// Empty reports whether the suggestion carries nothing worth applying.
func (s Suggestion) Empty() bool {
	return s.Title == "" && s.Type == "" && len(s.Topics) == 0
}

// Client calls the metadata extraction endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a suggestion client for the given endpoint URL. A zero timeout
// falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// response covers both wire shapes: the success shape carries title/type/
// topics, the failure shape carries success=false with an error message and
// a null title. Both decode into the same struct.
type response struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Topics  []string `json:"topics"`
}

// Suggest fetches a metadata guess for pageURL. knownTopics is the current
// topic vocabulary, passed along so the service can match against it. A
// non-nil error means "no suggestion"; callers log it at debug level at most.
func (c *Client) Suggest(ctx context.Context, pageURL string, knownTopics []string) (Suggestion, error) {
	params := url.Values{}
	params.Set("url", pageURL)
	if len(knownTopics) > 0 {
		encoded, err := json.Marshal(knownTopics)
		if err != nil {
			return Suggestion{}, fmt.Errorf("encode topics: %w", err)
		}
		params.Set("topics", string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Suggestion{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Suggestion{}, fmt.Errorf("metadata request failed: status %d", resp.StatusCode)
	}

	var body response
	if err := json.UnmarshalRead(resp.Body, &body); err != nil {
		return Suggestion{}, fmt.Errorf("parse response: %w", err)
	}

	if !body.Success {
		// The failure shape is still a valid "no suggestion" outcome.
		return Suggestion{}, nil
	}

	return Suggestion{
		Title:  body.Title,
		Type:   body.Type,
		Topics: body.Topics,
	}, nil
}
