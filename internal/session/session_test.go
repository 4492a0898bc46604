// ABOUTME: Tests for the session store state machine
// ABOUTME: Uses a fake API to check token and user always change together

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/quickpoll/internal/client"
)

type fakeAPI struct {
	mu    sync.Mutex
	token string

	loginRes    client.Result[client.AuthResponse]
	registerRes client.Result[client.AuthResponse]
	meRes       client.Result[client.User]
	meCalls     atomic.Int32
	meDelay     time.Duration
}

func (f *fakeAPI) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAPI) SetToken(t string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = t
	return nil
}

func (f *fakeAPI) Login(context.Context, string, string) client.Result[client.AuthResponse] {
	return f.loginRes
}

func (f *fakeAPI) Register(context.Context, string, string, string) client.Result[client.AuthResponse] {
	return f.registerRes
}

func (f *fakeAPI) CurrentUser(context.Context) client.Result[client.User] {
	f.meCalls.Add(1)
	if f.meDelay > 0 {
		time.Sleep(f.meDelay)
	}
	return f.meRes
}

type fakeAnon struct {
	cleared int
}

func (a *fakeAnon) Clear() error {
	a.cleared++
	return nil
}

func okUser(id, name string) client.Result[client.User] {
	return client.Result[client.User]{Success: true, Data: &client.User{ID: id, Username: name}, StatusCode: 200}
}

func okAuth(token string, user client.User) client.Result[client.AuthResponse] {
	return client.Result[client.AuthResponse]{
		Success:    true,
		Data:       &client.AuthResponse{User: user, AccessToken: token, TokenType: "bearer"},
		StatusCode: 200,
	}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestNewStartsInitializing(t *testing.T) {
	s := New(&fakeAPI{}, &fakeAnon{})
	snap := s.Snapshot()
	assert.Equal(t, StateInitializing, snap.State)
	assert.True(t, snap.Loading)
	assert.False(t, snap.IsAuthenticated())
}

func TestInitWithoutToken(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, &fakeAnon{})

	s.Init(context.Background())

	assert.Equal(t, StateAnonymous, s.Snapshot().State)
	assert.False(t, s.Loading())
	assert.Zero(t, api.meCalls.Load(), "no network call without a token")
}

func TestInitWithValidToken(t *testing.T) {
	api := &fakeAPI{token: "opaque-token", meRes: okUser("u1", "alice")}
	s := New(api, &fakeAnon{})

	s.Init(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	assert.Equal(t, "opaque-token", api.Token())
}

func TestInitWithRejectedToken(t *testing.T) {
	api := &fakeAPI{
		token: "stale",
		meRes: client.Result[client.User]{Success: false, Message: "Invalid token", StatusCode: 401},
	}
	s := New(api, &fakeAnon{})

	s.Init(context.Background())

	assert.Equal(t, StateAnonymous, s.Snapshot().State)
	assert.Nil(t, s.User())
	assert.Empty(t, api.Token(), "failed auth check clears the token")
}

func TestInitWithExpiredJWTSkipsNetwork(t *testing.T) {
	api := &fakeAPI{meRes: okUser("u1", "alice")}
	api.token = signed(t, time.Now().Add(-time.Hour))
	s := New(api, &fakeAnon{})

	s.Init(context.Background())

	assert.Equal(t, StateAnonymous, s.Snapshot().State)
	assert.Empty(t, api.Token())
	assert.Zero(t, api.meCalls.Load())
}

func TestInitWithUnexpiredJWT(t *testing.T) {
	api := &fakeAPI{meRes: okUser("u1", "alice")}
	api.token = signed(t, time.Now().Add(time.Hour))
	s := New(api, &fakeAnon{})

	s.Init(context.Background())

	assert.True(t, s.IsAuthenticated())
	assert.EqualValues(t, 1, api.meCalls.Load())
}

func TestLoginSuccess(t *testing.T) {
	api := &fakeAPI{loginRes: okAuth("tok-1", client.User{ID: "u1", Username: "alice"})}
	s := New(api, &fakeAnon{})
	s.Init(context.Background())

	require.NoError(t, s.Login(context.Background(), "alice", "pw"))

	snap := s.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.Loading)
	assert.Equal(t, "tok-1", api.Token())
	assert.Equal(t, "u1", snap.User.ID)
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		res  client.Result[client.AuthResponse]
		want string
	}{
		{"server message", client.Result[client.AuthResponse]{Message: "Invalid credentials", Error: "unauthorized", StatusCode: 401}, "Invalid credentials"},
		{"error only", client.Result[client.AuthResponse]{Error: "unauthorized", StatusCode: 401}, "unauthorized"},
		{"nothing", client.Result[client.AuthResponse]{StatusCode: 401}, LoginFailed},
		{"success without token", client.Result[client.AuthResponse]{Success: true, Data: &client.AuthResponse{}, StatusCode: 200}, LoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{loginRes: tt.res}
			s := New(api, &fakeAnon{})
			s.Init(context.Background())

			err := s.Login(context.Background(), "alice", "bad")

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.want, authErr.Message)
			assert.Equal(t, "login", authErr.Op)

			// Neither half of the session is installed
			assert.Empty(t, api.Token())
			assert.Nil(t, s.User())
			assert.Equal(t, StateAnonymous, s.Snapshot().State)
			assert.False(t, s.Loading())
		})
	}
}

func TestRegisterFailureFallback(t *testing.T) {
	api := &fakeAPI{registerRes: client.Result[client.AuthResponse]{StatusCode: 0}}
	s := New(api, &fakeAnon{})

	err := s.Register(context.Background(), "bob", "bob@example.com", "password1")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, RegistrationFailed, authErr.Message)
}

func TestRegisterSuccess(t *testing.T) {
	api := &fakeAPI{registerRes: okAuth("tok-2", client.User{ID: "u2", Username: "bob"})}
	s := New(api, &fakeAnon{})

	require.NoError(t, s.Register(context.Background(), "bob", "bob@example.com", "password1"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok-2", api.Token())
}

func TestLogoutIsIdempotent(t *testing.T) {
	api := &fakeAPI{loginRes: okAuth("tok", client.User{ID: "u1"})}
	anon := &fakeAnon{}
	s := New(api, anon)
	require.NoError(t, s.Login(context.Background(), "a", "b"))

	s.Logout()
	first := s.Snapshot()
	s.Logout()
	second := s.Snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, StateAnonymous, second.State)
	assert.Empty(t, api.Token())
	assert.Equal(t, 2, anon.cleared)
}

func TestRefreshUserReplacesUser(t *testing.T) {
	api := &fakeAPI{loginRes: okAuth("tok", client.User{ID: "u1", Username: "old"}), meRes: okUser("u1", "new")}
	s := New(api, &fakeAnon{})
	require.NoError(t, s.Login(context.Background(), "a", "b"))

	require.NoError(t, s.RefreshUser(context.Background()))
	assert.Equal(t, "new", s.User().Username)
}

func TestRefreshUserFailureLogsOut(t *testing.T) {
	api := &fakeAPI{
		loginRes: okAuth("tok", client.User{ID: "u1"}),
		meRes:    client.Result[client.User]{StatusCode: 401, Message: "expired"},
	}
	anon := &fakeAnon{}
	s := New(api, anon)
	require.NoError(t, s.Login(context.Background(), "a", "b"))

	err := s.RefreshUser(context.Background())
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, api.Token())
	assert.Equal(t, 1, anon.cleared)
}

func TestRefreshUserCoalesces(t *testing.T) {
	api := &fakeAPI{token: "tok", meRes: okUser("u1", "alice"), meDelay: 50 * time.Millisecond}
	s := New(api, &fakeAnon{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RefreshUser(context.Background()))
		}()
	}
	wg.Wait()

	assert.Less(t, api.meCalls.Load(), int32(5))
}

func TestRequire(t *testing.T) {
	api := &fakeAPI{loginRes: okAuth("tok", client.User{ID: "u1"})}
	s := New(api, &fakeAnon{})
	s.Init(context.Background())

	err := s.Require("/create")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthRequired))

	var redirect *RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/create", redirect.Next)
	assert.Equal(t, "/login?next=/create", redirect.LoginPath())

	require.NoError(t, s.Login(context.Background(), "a", "b"))
	assert.NoError(t, s.Require("/create"))
}

func TestSubscribe(t *testing.T) {
	api := &fakeAPI{loginRes: okAuth("tok", client.User{ID: "u1"})}
	s := New(api, &fakeAnon{})

	var states []State
	var loading []bool
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		states = append(states, snap.State)
		loading = append(loading, snap.Loading)
	})

	s.Init(context.Background())
	require.NoError(t, s.Login(context.Background(), "a", "b"))
	unsubscribe()
	s.Logout()

	assert.Equal(t, []State{StateAnonymous, StateAnonymous, StateAuthenticated}, states)
	assert.Equal(t, []bool{false, true, false}, loading)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	api := &fakeAPI{token: signed(t, exp)}
	s := New(api, &fakeAnon{})

	got, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	api.token = "not-a-jwt"
	_, ok = s.TokenExpiry()
	assert.False(t, ok)
}
