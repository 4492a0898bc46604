// ABOUTME: Request and response types for the QuickPoll API
// ABOUTME: Field names follow the API's snake_case JSON

package client

import (
	"bytes"
	"encoding/json"
)

// User is the authenticated principal
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	LastLogin  string `json:"last_login,omitempty"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PollOption is one selectable choice within a poll
type PollOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"vote_count"`
	PollID    string `json:"poll_id,omitempty"`
}

// Poll is a question with its options and counters
type Poll struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Options       []PollOption `json:"options"`
	TotalVotes    int          `json:"total_votes"`
	LikesCount    int          `json:"likes_count"`
	CreatedAt     string       `json:"created_at,omitempty"`
	UpdatedAt     string       `json:"updated_at,omitempty"`
	IsActive      bool         `json:"is_active"`
	IsExpired     bool         `json:"is_expired"`
	AllowMultiple bool         `json:"allow_multiple"`
	AuthorID      string       `json:"author_id,omitempty"`
}

// Vote is a cast ballot for one option
type Vote struct {
	ID        string `json:"id"`
	PollID    string `json:"poll_id"`
	OptionID  string `json:"option_id"`
	UserID    string `json:"user_id,omitempty"`
	AnonID    string `json:"anon_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// VoteStats aggregates votes for a poll
type VoteStats struct {
	PollID             string         `json:"poll_id"`
	TotalVotes         int            `json:"total_votes"`
	UniqueVoters       int            `json:"unique_voters"`
	AnonymousVotes     int            `json:"anonymous_votes"`
	AuthenticatedVotes int            `json:"authenticated_votes"`
	VotesByOption      map[string]int `json:"votes_by_option"`
	PollTotalVotes     int            `json:"poll_total_votes"`
}

// Like records a user liking a poll
type Like struct {
	ID        string `json:"id"`
	PollID    string `json:"poll_id"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// LikeStatus is the like state after a like or unlike call
type LikeStatus struct {
	PollID     string `json:"poll_id"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likes_count"`
}

// HealthStatus is the free-form health payload. Non-object bodies are kept
// under the "status" key.
type HealthStatus map[string]any

// UnmarshalJSON implements json.Unmarshaler
func (h *HealthStatus) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		m := map[string]any{}
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return err
		}
		*h = m
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*h = HealthStatus{"status": v}
	return nil
}

// Status returns the "status" field as text, if present
func (h HealthStatus) Status() string {
	if s, ok := h["status"].(string); ok {
		return s
	}
	return ""
}

// LoginRequest is the body of POST /api/users/login
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// RegisterRequest is the body of POST /api/users/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreatePollRequest is the body of POST /api/polls
type CreatePollRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allow_multiple"`
}

// UpdatePollRequest is the body of PUT /api/polls/{id}
type UpdatePollRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// CastVoteRequest is the body of POST /api/votes
type CastVoteRequest struct {
	PollID    string   `json:"poll_id"`
	OptionIDs []string `json:"option_ids"`
	AnonID    string   `json:"anon_id,omitempty"`
}
