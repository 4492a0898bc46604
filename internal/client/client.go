// ABOUTME: HTTP client for the QuickPoll API
// ABOUTME: Owns the bearer token and resolves every call to a Result envelope

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds each request when no timeout option is given
const DefaultTimeout = 30 * time.Second

// TokenStore persists the bearer token between runs
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Client is the API client for the QuickPoll backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithTokenStore persists the token and restores it when the client is built
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) {
		c.tokens = s
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokens != nil {
		tok, err := c.tokens.Load()
		if err != nil {
			slog.Warn("Failed to restore auth token", "error", err)
		}
		c.token = tok
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token currently held
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the held token. An empty token erases the persisted one.
// The in-memory token is updated even when persisting it fails.
func (c *Client) SetToken(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.tokens == nil {
		return nil
	}
	if token == "" {
		if err := c.tokens.Clear(); err != nil {
			return fmt.Errorf("failed to clear token: %w", err)
		}
		return nil
	}
	if err := c.tokens.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// do issues one request and normalizes the outcome. It never returns an error:
// transport failures become a status-0 Result.
func do[T any](ctx context.Context, c *Client, method, path string, body any) Result[T] {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			slog.Warn("Failed to encode request", "method", method, "path", path, "error", err)
			return networkFailure[T]()
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		slog.Warn("Failed to create request", "method", method, "path", path, "error", err)
		return networkFailure[T]()
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	slog.Debug("API request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logRequestError(ctx, method, path, err)
		return networkFailure[T]()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logRequestError(ctx, method, path, err)
		return networkFailure[T]()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("API error response", "method", method, "path", path, "status", resp.StatusCode)
		return errorResult[T](resp.StatusCode, raw)
	}

	res, ok := successResult[T](resp.StatusCode, raw)
	if !ok {
		slog.Warn("Invalid response from backend", "method", method, "path", path, "status", resp.StatusCode)
		return networkFailure[T]()
	}
	return res
}

func (c *Client) logRequestError(ctx context.Context, method, path string, err error) {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		slog.Debug("Request canceled", "method", method, "path", path)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		slog.Warn("Request timed out", "method", method, "path", path)
	default:
		slog.Warn("Cannot connect to backend", "url", c.baseURL, "method", method, "path", path, "error", err)
	}
}

func pageQuery(skip, limit int) string {
	q := url.Values{}
	q.Set("skip", fmt.Sprint(skip))
	q.Set("limit", fmt.Sprint(limit))
	return "?" + q.Encode()
}

func seg(id string) string {
	return url.PathEscape(id)
}

// Login calls POST /api/users/login
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) Result[AuthResponse] {
	return do[AuthResponse](ctx, c, http.MethodPost, "/api/users/login", LoginRequest{
		UsernameOrEmail: usernameOrEmail,
		Password:        password,
	})
}

// Register calls POST /api/users/register
func (c *Client) Register(ctx context.Context, username, email, password string) Result[AuthResponse] {
	return do[AuthResponse](ctx, c, http.MethodPost, "/api/users/register", RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
}

// CurrentUser calls GET /api/users/me
func (c *Client) CurrentUser(ctx context.Context) Result[User] {
	return do[User](ctx, c, http.MethodGet, "/api/users/me", nil)
}

// ListPolls calls GET /api/polls
func (c *Client) ListPolls(ctx context.Context, skip, limit int) Result[Page[Poll]] {
	return do[Page[Poll]](ctx, c, http.MethodGet, "/api/polls"+pageQuery(skip, limit), nil)
}

// GetPoll calls GET /api/polls/{id}
func (c *Client) GetPoll(ctx context.Context, id string) Result[Poll] {
	return do[Poll](ctx, c, http.MethodGet, "/api/polls/"+seg(id), nil)
}

// CreatePoll calls POST /api/polls
func (c *Client) CreatePoll(ctx context.Context, req CreatePollRequest) Result[Poll] {
	return do[Poll](ctx, c, http.MethodPost, "/api/polls", req)
}

// UpdatePoll calls PUT /api/polls/{id}
func (c *Client) UpdatePoll(ctx context.Context, id string, req UpdatePollRequest) Result[Poll] {
	return do[Poll](ctx, c, http.MethodPut, "/api/polls/"+seg(id), req)
}

// DeletePoll calls DELETE /api/polls/{id}
func (c *Client) DeletePoll(ctx context.Context, id string) Result[json.RawMessage] {
	return do[json.RawMessage](ctx, c, http.MethodDelete, "/api/polls/"+seg(id), nil)
}

// ActivatePoll calls POST /api/polls/{id}/activate
func (c *Client) ActivatePoll(ctx context.Context, id string) Result[json.RawMessage] {
	return do[json.RawMessage](ctx, c, http.MethodPost, "/api/polls/"+seg(id)+"/activate", nil)
}

// DeactivatePoll calls POST /api/polls/{id}/deactivate
func (c *Client) DeactivatePoll(ctx context.Context, id string) Result[json.RawMessage] {
	return do[json.RawMessage](ctx, c, http.MethodPost, "/api/polls/"+seg(id)+"/deactivate", nil)
}

// LikePoll calls POST /api/polls/{id}/like
func (c *Client) LikePoll(ctx context.Context, id string) Result[LikeStatus] {
	return do[LikeStatus](ctx, c, http.MethodPost, "/api/polls/"+seg(id)+"/like", nil)
}

// UnlikePoll calls DELETE /api/polls/{id}/like
func (c *Client) UnlikePoll(ctx context.Context, id string) Result[LikeStatus] {
	return do[LikeStatus](ctx, c, http.MethodDelete, "/api/polls/"+seg(id)+"/like", nil)
}

// CastVote calls POST /api/votes. anonID is omitted from the body when empty.
func (c *Client) CastVote(ctx context.Context, pollID string, optionIDs []string, anonID string) Result[[]Vote] {
	return do[[]Vote](ctx, c, http.MethodPost, "/api/votes", CastVoteRequest{
		PollID:    pollID,
		OptionIDs: optionIDs,
		AnonID:    anonID,
	})
}

// PollVotes calls GET /api/votes/poll/{id}
func (c *Client) PollVotes(ctx context.Context, pollID string, skip, limit int) Result[Page[Vote]] {
	return do[Page[Vote]](ctx, c, http.MethodGet, "/api/votes/poll/"+seg(pollID)+pageQuery(skip, limit), nil)
}

// PollStats calls GET /api/votes/poll/{id}/stats
func (c *Client) PollStats(ctx context.Context, pollID string) Result[VoteStats] {
	return do[VoteStats](ctx, c, http.MethodGet, "/api/votes/poll/"+seg(pollID)+"/stats", nil)
}

// UserPolls calls GET /api/users/{id}/polls
func (c *Client) UserPolls(ctx context.Context, userID string) Result[Page[Poll]] {
	return do[Page[Poll]](ctx, c, http.MethodGet, "/api/users/"+seg(userID)+"/polls", nil)
}

// UserVotes calls GET /api/users/{id}/votes
func (c *Client) UserVotes(ctx context.Context, userID string) Result[Page[Vote]] {
	return do[Page[Vote]](ctx, c, http.MethodGet, "/api/users/"+seg(userID)+"/votes", nil)
}

// UserLikes calls GET /api/users/{id}/likes
func (c *Client) UserLikes(ctx context.Context, userID string) Result[Page[Like]] {
	return do[Page[Like]](ctx, c, http.MethodGet, "/api/users/"+seg(userID)+"/likes", nil)
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) Result[HealthStatus] {
	return do[HealthStatus](ctx, c, http.MethodGet, "/health", nil)
}
