// Package circle is the HTTP client for the Circle Admin API v2. It owns the
// retry policy for post calls: server-side failures are retried with
// exponential backoff up to a bounded attempt count, client-side failures
// are surfaced immediately since retrying a malformed request cannot
// succeed.
package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/goliatone/go-circle-publisher/internal/logging"
	"github.com/goliatone/go-circle-publisher/internal/tiptap"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

// DefaultBaseURL is the production Circle Admin API endpoint.
const DefaultBaseURL = "https://app.circle.so/api/admin/v2"

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 2 // three attempts total
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 10 * time.Second
)

// RejectedError is a client-side (4xx) API failure. It is never retried.
type RejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("circle: request rejected with status %d: %s", e.StatusCode, e.Detail)
}

// UnavailableError is a server-side failure that persisted through the
// configured retry budget.
type UnavailableError struct {
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("circle: request failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }

// PostDraft is the content payload for a create or update call.
type PostDraft struct {
	Title string
	Slug  string
	Body  tiptap.Document
}

// Config captures client connection and retry settings.
type Config struct {
	BaseURL  string
	APIToken string
	SpaceID  string
	// Timeout bounds each individual attempt, not the whole retry cycle.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client issues create and update post calls against the Circle Admin API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger interfaces.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithLogger attaches a logger to the client.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Client with the original deployment defaults: 30s
// per-attempt timeout and three total attempts with 2s..10s exponential
// backoff.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreatePost creates a new draft post in the configured space and returns
// the new post id.
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (string, error) {
	payload := map[string]any{
		"space_id":            c.cfg.SpaceID,
		"name":                draft.Title,
		"body":                draft.Body,
		"slug":                draft.Slug,
		"is_comments_enabled": true,
		"is_liking_enabled":   true,
		"is_pinned":           false,
		"status":              "draft",
	}

	c.logger.Debug("creating post", "title", draft.Title, "slug", draft.Slug)

	data, err := c.send(ctx, http.MethodPost, c.cfg.BaseURL+"/posts", payload)
	if err != nil {
		return "", err
	}

	postID, err := parsePostID(data)
	if err != nil {
		return "", err
	}

	c.logger.Info("created post", "circle_post_id", postID, "title", draft.Title)
	return postID, nil
}

// UpdatePost replaces the title and body of an existing post. Settings other
// than content are left untouched.
func (c *Client) UpdatePost(ctx context.Context, postID string, draft PostDraft) (string, error) {
	payload := map[string]any{
		"name": draft.Title,
		"body": draft.Body,
	}

	c.logger.Debug("updating post", "circle_post_id", postID, "title", draft.Title)

	if _, err := c.send(ctx, http.MethodPut, c.cfg.BaseURL+"/posts/"+postID, payload); err != nil {
		return "", err
	}

	c.logger.Info("updated post", "circle_post_id", postID, "title", draft.Title)
	return postID, nil
}

// disposition classifies an HTTP status for the retry loop.
type disposition int

const (
	dispositionRetry disposition = iota
	dispositionReject
)

// classify maps a response status to a retry decision: 5xx is transient and
// retried, everything else non-2xx is terminal.
func classify(status int) disposition {
	if status >= 500 {
		return dispositionRetry
	}
	return dispositionReject
}

// send issues one API call with the retry policy applied and returns the
// response body on success. A started call runs to rejection, success, or
// retry exhaustion; the retry cycle itself is not cancellable.
func (c *Client) send(ctx context.Context, method, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("circle: encode payload: %w", err)
	}

	var result []byte
	attempts := 0

	operation := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("circle: build request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn("request transport failure", "method", method, "url", url, "attempt", attempts, "error", err)
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
			result = data
			return nil
		}

		detail := strings.TrimSpace(string(data))
		if classify(resp.StatusCode) == dispositionReject {
			return backoff.Permanent(&RejectedError{StatusCode: resp.StatusCode, Detail: detail})
		}

		c.logger.Warn("server-side failure, will retry",
			"method", method, "status", resp.StatusCode, "attempt", attempts)
		return fmt.Errorf("circle: status %d: %s", resp.StatusCode, detail)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff
	policy.MaxElapsedTime = 0

	if err := backoff.Retry(operation, backoff.WithMaxRetries(policy, c.cfg.MaxRetries)); err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return nil, rejected
		}
		return nil, &UnavailableError{Attempts: attempts, Last: err}
	}

	return result, nil
}

// parsePostID extracts the post id from a create response, handling both the
// nested {"post": {...}} envelope and a bare post object, and ids encoded as
// numbers or strings.
func parsePostID(data []byte) (string, error) {
	var envelope struct {
		Post json.RawMessage `json:"post"`
		ID   json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("circle: decode response: %w", err)
	}

	raw := envelope.ID
	if len(envelope.Post) > 0 {
		var nested struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(envelope.Post, &nested); err != nil {
			return "", fmt.Errorf("circle: decode post envelope: %w", err)
		}
		raw = nested.ID
	}

	id, err := idString(raw)
	if err != nil || id == "" {
		return "", fmt.Errorf("circle: no post id in response: %s", strings.TrimSpace(string(data)))
	}
	return id, nil
}

// idString renders a raw id value, string or numeric, as its string form.
func idString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("circle: missing id")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
