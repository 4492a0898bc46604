// ABOUTME: Session store tracking who the current user is
// ABOUTME: Drives the Initializing -> Anonymous/Authenticated state machine over the API client

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/markalston/quickpoll/internal/client"
)

// State is the session lifecycle position
type State int

const (
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fallback messages when the server gives no reason
const (
	LoginFailed        = "Login failed"
	RegistrationFailed = "Registration failed"
)

// API is the part of the client the session needs
type API interface {
	Token() string
	SetToken(token string) error
	Login(ctx context.Context, usernameOrEmail, password string) client.Result[client.AuthResponse]
	Register(ctx context.Context, username, email, password string) client.Result[client.AuthResponse]
	CurrentUser(ctx context.Context) client.Result[client.User]
}

// AnonymousIDs is the anonymous identity the session resets on logout
type AnonymousIDs interface {
	Clear() error
}

// ErrAuthRequired is wrapped by RedirectError
var ErrAuthRequired = errors.New("login required")

// AuthError is a login, registration or refresh failure
type AuthError struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

// RedirectError sends an anonymous user to login, remembering where to go next
type RedirectError struct {
	Next string
}

func (e *RedirectError) Error() string {
	return ErrAuthRequired.Error()
}

func (e *RedirectError) Unwrap() error {
	return ErrAuthRequired
}

// LoginPath is the login route carrying the preserved destination
func (e *RedirectError) LoginPath() string {
	if e.Next == "" {
		return "/login"
	}
	return "/login?next=" + e.Next
}

// Snapshot is a point-in-time copy of the session
type Snapshot struct {
	State   State
	User    *client.User
	Loading bool
}

// IsAuthenticated is derived from the user, never tracked on its own
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil
}

// Store owns the current user and keeps it consistent with the API token
type Store struct {
	api  API
	anon AnonymousIDs
	now  func() time.Time

	mu        sync.RWMutex
	state     State
	user      *client.User
	loading   bool
	listeners map[int]func(Snapshot)
	nextID    int

	refresh singleflight.Group
}

// New creates a store in the Initializing state
func New(api API, anon AnonymousIDs) *Store {
	return &Store{
		api:       api,
		anon:      anon,
		now:       time.Now,
		state:     StateInitializing,
		loading:   true,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Init resolves the persisted token into a user. An expired JWT is dropped
// without asking the server.
func (s *Store) Init(ctx context.Context) {
	tok := s.api.Token()
	if tok == "" {
		s.transition(StateAnonymous, nil)
		return
	}

	if exp, ok := tokenExpiry(tok); ok && !exp.After(s.now()) {
		slog.Debug("Stored token expired", "expired_at", exp)
		s.clearToken()
		s.transition(StateAnonymous, nil)
		return
	}

	res := s.api.CurrentUser(ctx)
	if !res.OK() {
		slog.Debug("Stored token rejected", "status", res.StatusCode, "message", res.Message)
		s.clearToken()
		s.transition(StateAnonymous, nil)
		return
	}
	user := *res.Data
	s.transition(StateAuthenticated, &user)
}

// Login exchanges credentials for a token and user
func (s *Store) Login(ctx context.Context, usernameOrEmail, password string) error {
	s.setLoading(true)
	res := s.api.Login(ctx, usernameOrEmail, password)
	return s.finishAuth("login", res, LoginFailed)
}

// Register creates an account and signs in as it
func (s *Store) Register(ctx context.Context, username, email, password string) error {
	s.setLoading(true)
	res := s.api.Register(ctx, username, email, password)
	return s.finishAuth("register", res, RegistrationFailed)
}

func (s *Store) finishAuth(op string, res client.Result[client.AuthResponse], fallback string) error {
	if !res.OK() || res.Data.AccessToken == "" {
		s.setLoading(false)
		return &AuthError{Op: op, Message: res.Failure(fallback), StatusCode: res.StatusCode}
	}

	if err := s.api.SetToken(res.Data.AccessToken); err != nil {
		slog.Warn("Failed to persist auth token", "error", err)
	}
	user := res.Data.User
	s.transition(StateAuthenticated, &user)
	return nil
}

// RefreshUser reloads the current user. Failure ends the session.
// Concurrent callers share one request.
func (s *Store) RefreshUser(ctx context.Context) error {
	_, err, _ := s.refresh.Do("refresh", func() (interface{}, error) {
		res := s.api.CurrentUser(ctx)
		if !res.OK() {
			s.Logout()
			return nil, &AuthError{Op: "refresh", Message: res.Failure("Session expired"), StatusCode: res.StatusCode}
		}
		user := *res.Data
		s.transition(StateAuthenticated, &user)
		return nil, nil
	})
	return err
}

// Logout clears the token and anonymous identity. It never fails and is
// safe to repeat.
func (s *Store) Logout() {
	s.clearToken()
	if s.anon != nil {
		if err := s.anon.Clear(); err != nil {
			slog.Warn("Failed to clear anonymous id", "error", err)
		}
	}
	s.transition(StateAnonymous, nil)
}

func (s *Store) clearToken() {
	if err := s.api.SetToken(""); err != nil {
		slog.Warn("Failed to clear auth token", "error", err)
	}
}

// Snapshot returns the current session
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var user *client.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{State: s.state, User: user, Loading: s.loading}
}

// User returns a copy of the signed-in user, or nil
func (s *Store) User() *client.User {
	return s.Snapshot().User
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// Loading reports whether an auth operation is in flight
func (s *Store) Loading() bool {
	return s.Snapshot().Loading
}

// Require gates a protected action. Anonymous callers get a *RedirectError
// naming next as the post-login destination.
func (s *Store) Require(next string) error {
	if s.IsAuthenticated() {
		return nil
	}
	return &RedirectError{Next: next}
}

// Subscribe registers fn to run after every transition
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// TokenExpiry returns the exp claim of the held token when it is a JWT.
// The claim is read without verification.
func (s *Store) TokenExpiry() (time.Time, bool) {
	return tokenExpiry(s.api.Token())
}

func tokenExpiry(tok string) (time.Time, bool) {
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	snap := s.snapshotLocked()
	fns := s.listenersLocked()
	s.mu.Unlock()

	notify(fns, snap)
}

// transition installs state and user together and clears Loading
func (s *Store) transition(state State, user *client.User) {
	s.mu.Lock()
	from := s.state
	s.state = state
	s.user = user
	s.loading = false
	snap := s.snapshotLocked()
	fns := s.listenersLocked()
	s.mu.Unlock()

	if from != state {
		slog.Debug("Session transition", "from", from, "to", state)
	}
	notify(fns, snap)
}

func (s *Store) listenersLocked() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}
