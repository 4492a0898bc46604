// ABOUTME: Integration tests for TUI app
// ABOUTME: Tests screen routing, async result handling and the login redirect

package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/quickpoll/internal/anonid"
	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/session"
	"github.com/markalston/quickpoll/internal/tui/polldetail"
)

// fakeAuth satisfies session.API without a server
type fakeAuth struct {
	token string
	user  client.User
}

func (f *fakeAuth) Token() string { return f.token }

func (f *fakeAuth) SetToken(token string) error {
	f.token = token
	return nil
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) client.Result[client.AuthResponse] {
	return client.Result[client.AuthResponse]{
		Success:    true,
		StatusCode: 200,
		Data:       &client.AuthResponse{User: f.user, AccessToken: "tok"},
	}
}

func (f *fakeAuth) Register(ctx context.Context, _, _, _ string) client.Result[client.AuthResponse] {
	return f.Login(ctx, "", "")
}

func (f *fakeAuth) CurrentUser(_ context.Context) client.Result[client.User] {
	u := f.user
	return client.Result[client.User]{Success: true, StatusCode: 200, Data: &u}
}

func newSizedApp(t *testing.T, opts Options) *App {
	t.Helper()
	app := New(opts)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(*App)
}

func samplePoll() client.Poll {
	return client.Poll{
		ID:       "p1",
		Title:    "Best editor?",
		IsActive: true,
		Options: []client.PollOption{
			{ID: "o1", Text: "vim", VoteCount: 3},
			{ID: "o2", Text: "emacs", VoteCount: 1},
		},
		TotalVotes: 4,
		LikesCount: 2,
	}
}

func TestAppInitialState(t *testing.T) {
	app := New(Options{Client: client.New("http://localhost:8000")})

	if app.screen != ScreenMenu {
		t.Errorf("expected initial screen to be ScreenMenu, got %s", app.screen)
	}
	if app.menu == nil {
		t.Error("expected menu to be initialized")
	}
	if app.pageSize != 20 {
		t.Errorf("expected default page size 20, got %d", app.pageSize)
	}
	if app.busy() {
		t.Error("expected app without a session to start idle")
	}
}

func TestAppStartsBusyWhileSessionInitializes(t *testing.T) {
	store := session.New(&fakeAuth{}, nil)
	app := New(Options{Session: store})

	if !app.busy() {
		t.Fatal("expected app to be busy before the session resolves")
	}
	if !strings.Contains(app.View(), "Restoring session") {
		t.Error("expected spinner label while the session initializes")
	}

	store.Init(context.Background())
	model, _ := app.Update(sessionMsg{})
	app = model.(*App)

	if app.busy() {
		t.Error("expected app to be idle once the session resolved")
	}
	if app.snap.State != session.StateAnonymous {
		t.Errorf("expected anonymous session, got %s", app.snap.State)
	}
}

func TestScreenString(t *testing.T) {
	tests := []struct {
		screen Screen
		want   string
	}{
		{ScreenMenu, "menu"},
		{ScreenHome, "home"},
		{ScreenPolls, "polls"},
		{ScreenPoll, "poll"},
		{ScreenCreate, "create"},
		{ScreenLogin, "login"},
		{ScreenRegister, "register"},
		{ScreenProfile, "profile"},
		{Screen(42), "Screen(42)"},
	}

	for _, tc := range tests {
		if got := tc.screen.String(); got != tc.want {
			t.Errorf("Screen(%d).String() = %q, want %q", int(tc.screen), got, tc.want)
		}
	}
}

func TestAppPollsLoadedMsg(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPolls
	app.loading = true

	page := client.Page[client.Poll]{Items: []client.Poll{samplePoll()}, Total: 1}
	model, _ := app.Update(pollsLoadedMsg{page: 1, res: client.Result[client.Page[client.Poll]]{Success: true, Data: &page}})
	app = model.(*App)

	if app.loading {
		t.Error("expected loading to clear")
	}
	if app.list == nil || len(app.list.Visible()) != 1 {
		t.Fatal("expected list to hold the loaded poll")
	}
	if app.lastUpdate.IsZero() {
		t.Error("expected lastUpdate to be set")
	}
	if !strings.Contains(app.View(), "Best editor?") {
		t.Error("expected poll title in view")
	}
}

func TestAppPollsLoadFailureShowsRetry(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPolls

	model, _ := app.Update(pollsLoadedMsg{page: 1, res: client.Result[client.Page[client.Poll]]{
		Error:   client.NetworkError,
		Message: client.NetworkErrorMessage,
	}})
	app = model.(*App)

	if app.list.Err() != client.NetworkErrorMessage {
		t.Errorf("expected list error %q, got %q", client.NetworkErrorMessage, app.list.Err())
	}
	if len(app.list.Visible()) != 0 {
		t.Error("expected empty list after failure")
	}
	view := app.View()
	if !strings.Contains(view, client.NetworkErrorMessage) {
		t.Error("expected error message in view")
	}
	if !strings.Contains(view, "retry") {
		t.Error("expected retry hint in view")
	}
}

func TestAppOpenPollFromList(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPolls
	page := client.Page[client.Poll]{Items: []client.Poll{samplePoll()}, Total: 1}
	app.Update(pollsLoadedMsg{page: 1, res: client.Result[client.Page[client.Poll]]{Success: true, Data: &page}})

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	if app.screen != ScreenPoll {
		t.Fatalf("expected ScreenPoll, got %s", app.screen)
	}
	if app.back != ScreenPolls {
		t.Errorf("expected back to return to polls, got %s", app.back)
	}
	if app.pollID != "p1" || !app.loading || cmd == nil {
		t.Error("expected poll load to start")
	}
}

func TestAppPollLoadedNotFound(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "missing"
	app.loading = true

	model, _ := app.Update(pollLoadedMsg{id: "missing", detail: feed.Detail{Err: "Not found", NotFound: true}})
	app = model.(*App)

	if app.detail != nil {
		t.Error("expected no detail for a missing poll")
	}
	if !strings.Contains(app.View(), "Poll not found") {
		t.Error("expected not found message")
	}
}

func TestAppIgnoresStalePollLoad(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "p2"
	app.loading = true

	p := samplePoll()
	model, _ := app.Update(pollLoadedMsg{id: "p1", detail: feed.Detail{Poll: &p}})
	app = model.(*App)

	if app.detail != nil {
		t.Error("expected a load for another poll to be dropped")
	}
	if !app.loading {
		t.Error("expected the current load to still be pending")
	}
}

func TestAppPollLoadedRestoresVoteAndLike(t *testing.T) {
	app := newSizedApp(t, Options{ShareBaseURL: "https://quickpoll.test"})
	app.screen = ScreenPoll
	app.pollID = "p1"
	app.voted["p1"] = true
	app.liked["p1"] = true

	p := samplePoll()
	model, _ := app.Update(pollLoadedMsg{id: "p1", detail: feed.Detail{Poll: &p}})
	app = model.(*App)

	if app.detail == nil {
		t.Fatal("expected detail to be created")
	}
	if !app.detail.Voted() || !app.detail.Liked() {
		t.Error("expected remembered vote and like to be applied")
	}
	if app.detail.Link() != "https://quickpoll.test/poll/p1" {
		t.Errorf("unexpected share link %q", app.detail.Link())
	}
}

func TestAppVoteCastAppliesLocally(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "p1"
	app.detail = polldetail.New(samplePoll(), nil, "", 80)
	app.loading = true

	model, _ := app.Update(voteCastMsg{
		pollID:    "p1",
		optionIDs: []string{"o2"},
		res:       client.Result[[]client.Vote]{Success: true, StatusCode: 200},
	})
	app = model.(*App)

	p := app.detail.Poll()
	if p.TotalVotes != 5 || p.Options[1].VoteCount != 2 {
		t.Errorf("expected vote applied, got total=%d emacs=%d", p.TotalVotes, p.Options[1].VoteCount)
	}
	if !app.voted["p1"] {
		t.Error("expected vote to be remembered")
	}
	if app.detail.CanVote() {
		t.Error("expected voting to be closed after a vote")
	}
}

func TestAppVoteFailureShowsNotice(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "p1"
	app.detail = polldetail.New(samplePoll(), nil, "", 80)

	model, _ := app.Update(voteCastMsg{
		pollID:    "p1",
		optionIDs: []string{"o1"},
		res:       client.Result[[]client.Vote]{Message: "You have already voted", StatusCode: 400},
	})
	app = model.(*App)

	if app.detail.Notice() != "You have already voted" {
		t.Errorf("unexpected notice %q", app.detail.Notice())
	}
	if app.detail.Poll().TotalVotes != 4 {
		t.Error("expected counts unchanged after a rejected vote")
	}
}

// countingStorage records how often the anonymous id is read
type countingStorage struct {
	id    string
	loads int
}

func (c *countingStorage) Load() (string, error) {
	c.loads++
	return c.id, nil
}

func (c *countingStorage) Save(id string) error {
	c.id = id
	return nil
}

func (c *countingStorage) Clear() error {
	c.id = ""
	return nil
}

func TestAppCastVoteReadsAnonIDInCommand(t *testing.T) {
	var got client.CastVoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	storage := &countingStorage{id: "anon_abc"}
	app := newSizedApp(t, Options{Client: client.New(srv.URL), Anon: anonid.New(storage)})
	app.snap = session.Snapshot{State: session.StateAnonymous}

	cmd := app.castVote("p1", []string{"o1"})
	if storage.loads != 0 {
		t.Fatalf("expected no storage read before the command runs, got %d", storage.loads)
	}

	msg, ok := cmd().(voteCastMsg)
	if !ok || !msg.res.Success {
		t.Fatalf("unexpected result %+v", msg)
	}
	if storage.loads != 1 || got.AnonID != "anon_abc" {
		t.Errorf("expected anon id sent from the command, loads=%d sent=%q", storage.loads, got.AnonID)
	}
}

func TestAppLikeToggled(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "p1"
	app.detail = polldetail.New(samplePoll(), nil, "", 80)

	status := client.LikeStatus{PollID: "p1", Liked: true, LikesCount: 3}
	model, _ := app.Update(likeToggledMsg{pollID: "p1", res: client.Result[client.LikeStatus]{Success: true, Data: &status}})
	app = model.(*App)

	if !app.detail.Liked() || app.detail.Poll().LikesCount != 3 {
		t.Error("expected like state from the server")
	}
	if !app.liked["p1"] {
		t.Error("expected like to be remembered")
	}
}

func TestAppLikeToggledWithoutStatus(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "p1"
	app.detail = polldetail.New(samplePoll(), nil, "", 80)

	model, _ := app.Update(likeToggledMsg{
		pollID: "p1",
		like:   true,
		res:    client.Result[client.LikeStatus]{Success: true, StatusCode: 200, Message: "Poll liked"},
	})
	app = model.(*App)

	if !app.detail.Liked() || app.detail.Poll().LikesCount != 3 {
		t.Errorf("expected local like with count 3, got liked=%v count=%d", app.detail.Liked(), app.detail.Poll().LikesCount)
	}
	if app.detail.Notice() != "" {
		t.Errorf("expected no notice, got %q", app.detail.Notice())
	}
}

func TestAppLikeRequiresLogin(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenPoll
	app.pollID = "p1"
	app.detail = polldetail.New(samplePoll(), nil, "", 80)

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	app = model.(*App)

	if app.screen != ScreenLogin {
		t.Fatalf("expected redirect to login, got %s", app.screen)
	}
	if app.next == nil || app.next.screen != ScreenPoll || app.next.pollID != "p1" {
		t.Errorf("expected poll p1 preserved as destination, got %+v", app.next)
	}
}

func TestAppProtectedScreenRedirectsToLogin(t *testing.T) {
	for _, screen := range []Screen{ScreenCreate, ScreenProfile} {
		t.Run(screen.String(), func(t *testing.T) {
			app := newSizedApp(t, Options{})
			app.goTo(destination{screen: screen})

			if app.screen != ScreenLogin {
				t.Fatalf("expected ScreenLogin, got %s", app.screen)
			}
			if app.next == nil || app.next.screen != screen {
				t.Errorf("expected %s preserved as destination", screen)
			}
			if !strings.Contains(app.View(), LoginNotice) {
				t.Error("expected login notice in view")
			}
		})
	}
}

func TestAppLoginContinuesToDestination(t *testing.T) {
	store := session.New(&fakeAuth{user: client.User{ID: "u1", Username: "alice"}}, nil)
	store.Init(context.Background())
	app := newSizedApp(t, Options{Session: store})

	app.goTo(destination{screen: ScreenCreate})
	if app.screen != ScreenLogin {
		t.Fatalf("expected ScreenLogin, got %s", app.screen)
	}

	if err := store.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	model, _ := app.Update(authDoneMsg{})
	app = model.(*App)

	if app.screen != ScreenCreate {
		t.Errorf("expected to continue to ScreenCreate, got %s", app.screen)
	}
	if app.create == nil {
		t.Error("expected create form to be built")
	}
	if app.next != nil {
		t.Error("expected destination to be consumed")
	}
	if !strings.Contains(app.View(), "alice") {
		t.Error("expected username in header")
	}
}

func TestAppLoginFailureKeepsForm(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.goTo(destination{screen: ScreenLogin})
	app.loading = true

	model, _ := app.Update(authDoneMsg{err: &session.AuthError{Message: "Invalid credentials"}})
	app = model.(*App)

	if app.screen != ScreenLogin {
		t.Errorf("expected to stay on login, got %s", app.screen)
	}
	if app.auth.Err() != "Invalid credentials" {
		t.Errorf("unexpected form error %q", app.auth.Err())
	}
}

func TestAppSessionEndLeavesProtectedScreen(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.snap = session.Snapshot{State: session.StateAuthenticated, User: &client.User{ID: "u1", Username: "alice"}}
	app.screen = ScreenProfile
	app.liked["p1"] = true

	model, _ := app.Update(sessionMsg{snap: session.Snapshot{State: session.StateAnonymous}})
	app = model.(*App)

	if app.screen != ScreenMenu {
		t.Errorf("expected ScreenMenu, got %s", app.screen)
	}
	if len(app.liked) != 0 {
		t.Error("expected likes to be forgotten")
	}
	if !strings.Contains(app.View(), "Your session has ended") {
		t.Error("expected session ended notice")
	}
}

func TestAppPollCreatedOpensDetail(t *testing.T) {
	app := newSizedApp(t, Options{})
	app.screen = ScreenCreate
	app.loading = true

	p := samplePoll()
	model, _ := app.Update(pollCreatedMsg{res: client.Result[client.Poll]{Success: true, StatusCode: 201, Data: &p}})
	app = model.(*App)

	if app.screen != ScreenPoll {
		t.Fatalf("expected ScreenPoll, got %s", app.screen)
	}
	if app.detail == nil || app.detail.Notice() != "Poll created" {
		t.Error("expected created poll with notice")
	}
	if app.back != ScreenPolls {
		t.Errorf("expected back to go to polls, got %s", app.back)
	}
}

func TestAppViewReturnsContent(t *testing.T) {
	app := newSizedApp(t, Options{})

	view := app.View()
	if !strings.Contains(view, "QuickPoll") {
		t.Error("expected header to contain 'QuickPoll'")
	}
	if !strings.Contains(view, "anonymous") {
		t.Error("expected header to show anonymous user")
	}

	app.screen = ScreenPoll
	app.detail = polldetail.New(samplePoll(), nil, "", 80)
	view = app.View()
	if !strings.Contains(view, "Vote") || !strings.Contains(view, "Like") {
		t.Error("expected poll footer to show vote and like keybindings")
	}

	app.loading = true
	if !strings.Contains(app.View(), "Loading...") {
		t.Error("expected loading view while busy")
	}
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Second, "just now"},
		{30 * time.Second, "30s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}

	for _, tc := range tests {
		if got := formatTimeSince(tc.d); got != tc.want {
			t.Errorf("formatTimeSince(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
