// ABOUTME: Main TUI application model for QuickPoll
// ABOUTME: Routes between menu, poll list, poll detail, forms and profile screens

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/quickpoll/internal/anonid"
	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/pollview"
	"github.com/markalston/quickpoll/internal/session"
	"github.com/markalston/quickpoll/internal/share"
	"github.com/markalston/quickpoll/internal/tui/authform"
	"github.com/markalston/quickpoll/internal/tui/home"
	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/menu"
	"github.com/markalston/quickpoll/internal/tui/polldetail"
	"github.com/markalston/quickpoll/internal/tui/pollform"
	"github.com/markalston/quickpoll/internal/tui/polllist"
	"github.com/markalston/quickpoll/internal/tui/profile"
	"github.com/markalston/quickpoll/internal/tui/styles"
	"github.com/markalston/quickpoll/internal/tui/widgets"
)

// Screen represents the current screen
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenHome
	ScreenPolls
	ScreenPoll
	ScreenCreate
	ScreenLogin
	ScreenRegister
	ScreenProfile
)

func (s Screen) String() string {
	switch s {
	case ScreenMenu:
		return "menu"
	case ScreenHome:
		return "home"
	case ScreenPolls:
		return "polls"
	case ScreenPoll:
		return "poll"
	case ScreenCreate:
		return "create"
	case ScreenLogin:
		return "login"
	case ScreenRegister:
		return "register"
	case ScreenProfile:
		return "profile"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

const (
	minTerminalWidth = 80
	panelPadding     = 4
)

// LoginNotice is shown when a protected screen sends the user to login
const LoginNotice = "Please log in to continue"

// Options wires the app to the backend
type Options struct {
	Client       *client.Client
	Session      *session.Store
	Anon         *anonid.Provider
	PageSize     int
	ShareBaseURL string
}

// Messages for async operations
type sessionMsg struct {
	snap session.Snapshot
}

type homeLoadedMsg struct {
	home feed.Home
}

type pollsLoadedMsg struct {
	page int
	res  client.Result[client.Page[client.Poll]]
}

type pollLoadedMsg struct {
	id     string
	detail feed.Detail
}

type profileLoadedMsg struct {
	user    client.User
	profile feed.Profile
}

type voteCastMsg struct {
	pollID    string
	optionIDs []string
	res       client.Result[[]client.Vote]
}

type likeToggledMsg struct {
	pollID string
	like   bool
	res    client.Result[client.LikeStatus]
}

type pollCreatedMsg struct {
	res client.Result[client.Poll]
}

type authDoneMsg struct {
	err error
}

// destination is where to go once a protected screen may be shown
type destination struct {
	screen Screen
	pollID string
}

// App is the main TUI application model
type App struct {
	client       *client.Client
	session      *session.Store
	anon         *anonid.Provider
	pageSize     int
	shareBaseURL string

	screen     Screen
	back       Screen
	width      int
	height     int
	loading    bool
	spinner    spinner.Model
	snap       session.Snapshot
	next       *destination
	notice     string
	lastUpdate time.Time

	// pollID and pollErr track the poll screen while it loads or after it failed
	pollID   string
	pollErr  string
	notFound bool

	// per-run memory of what this user did, since the API does not report it
	voted map[string]bool
	liked map[string]bool

	menu    *menu.Menu
	home    *home.Home
	list    *polllist.List
	detail  *polldetail.Detail
	create  *pollform.Form
	auth    *authform.Form
	profile *profile.Profile
}

// New creates a new App model. Client and Session may be nil when only rendering.
func New(opts Options) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = polllist.DefaultPageSize
	}

	a := &App{
		client:       opts.Client,
		session:      opts.Session,
		anon:         opts.Anon,
		pageSize:     pageSize,
		shareBaseURL: opts.ShareBaseURL,
		screen:       ScreenMenu,
		spinner:      sp,
		snap:         session.Snapshot{State: session.StateAnonymous},
		voted:        make(map[string]bool),
		liked:        make(map[string]bool),
	}
	if opts.Session != nil {
		a.snap = opts.Session.Snapshot()
	}
	a.menu = menu.New(a.username())
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.menu.Init()}
	if a.session != nil && a.snap.State == session.StateInitializing {
		cmds = append(cmds, a.initSession(), a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		// huh forms size themselves from this message
		var cmds []tea.Cmd
		for _, m := range a.forms() {
			_, cmd := m.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionMsg:
		// notifications may arrive out of order, so the store is the source of truth
		snap := msg.snap
		if a.session != nil {
			snap = a.session.Snapshot()
		}
		return a, a.applySession(snap)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.busy() {
			return a, nil
		}

		switch a.screen {
		case ScreenMenu:
			return a.updateMenu(msg)
		case ScreenHome:
			return a.updateHome(msg)
		case ScreenPolls:
			return a.updatePolls(msg)
		case ScreenPoll:
			return a.updatePoll(msg)
		case ScreenCreate:
			return a.updateCreate(msg)
		case ScreenLogin, ScreenRegister:
			return a.updateAuth(msg)
		case ScreenProfile:
			return a.updateProfile(msg)
		}

	case menu.SelectedMsg:
		return a, a.handleMenu(msg.Item)

	case homeLoadedMsg:
		a.loading = false
		a.home = home.New(msg.home, a.innerWidth())
		if msg.home.Err == "" {
			a.lastUpdate = time.Now()
		}
		return a, nil

	case pollsLoadedMsg:
		return a, a.handlePollsLoaded(msg)

	case pollLoadedMsg:
		return a, a.handlePollLoaded(msg)

	case profileLoadedMsg:
		a.loading = false
		a.profile = profile.New(msg.user, msg.profile, a.innerWidth())
		for _, id := range a.profile.LikedPolls() {
			a.liked[id] = true
		}
		if msg.profile.Err == "" {
			a.lastUpdate = time.Now()
		}
		return a, nil

	case voteCastMsg:
		return a, a.handleVoteCast(msg)

	case likeToggledMsg:
		return a, a.handleLikeToggled(msg)

	case pollform.CompleteMsg:
		a.loading = true
		return a, tea.Batch(a.createPoll(msg.Request), a.spinner.Tick)

	case pollform.CancelledMsg:
		a.create = nil
		return a, a.goTo(destination{screen: ScreenMenu})

	case pollCreatedMsg:
		return a, a.handlePollCreated(msg)

	case authform.SubmitMsg:
		a.loading = true
		return a, tea.Batch(a.authenticate(msg), a.spinner.Tick)

	case authform.CancelledMsg:
		a.auth = nil
		a.next = nil
		return a, a.goTo(destination{screen: ScreenMenu})

	case authDoneMsg:
		return a, a.handleAuthDone(msg)

	default:
		// huh forms need their internal messages
		if m := a.activeForm(); m != nil {
			_, cmd := m.Update(msg)
			return a, cmd
		}
	}

	return a, nil
}

// busy reports whether input is blocked behind the spinner
func (a *App) busy() bool {
	return a.loading || a.snap.State == session.StateInitializing || a.snap.Loading
}

func (a *App) username() string {
	if a.snap.User == nil {
		return ""
	}
	return a.snap.User.Username
}

// forms returns every live huh-backed child
func (a *App) forms() []tea.Model {
	var out []tea.Model
	if a.menu != nil {
		out = append(out, a.menu)
	}
	if a.create != nil {
		out = append(out, a.create)
	}
	if a.auth != nil {
		out = append(out, a.auth)
	}
	return out
}

// activeForm returns the huh-backed child for the current screen, if any
func (a *App) activeForm() tea.Model {
	switch a.screen {
	case ScreenMenu:
		if a.menu != nil {
			return a.menu
		}
	case ScreenCreate:
		if a.create != nil {
			return a.create
		}
	case ScreenLogin, ScreenRegister:
		if a.auth != nil {
			return a.auth
		}
	}
	return nil
}

func (a *App) resize() {
	w := a.innerWidth()
	if a.home != nil {
		a.home.SetWidth(w)
	}
	if a.list != nil {
		a.list.SetSize(w, a.contentHeight())
	}
	if a.detail != nil {
		a.detail.SetWidth(w)
	}
	if a.create != nil {
		a.create.SetWidth(w)
	}
	if a.profile != nil {
		a.profile.SetWidth(w)
	}
}

// applySession reacts to a session transition
func (a *App) applySession(snap session.Snapshot) tea.Cmd {
	wasAuthenticated := a.snap.IsAuthenticated()
	wasInitializing := a.snap.State == session.StateInitializing
	a.snap = snap

	if wasAuthenticated && !snap.IsAuthenticated() {
		a.liked = make(map[string]bool)
		if a.screen == ScreenCreate || a.screen == ScreenProfile {
			a.notice = "Your session has ended"
			return a.goTo(destination{screen: ScreenMenu})
		}
	}
	if a.screen == ScreenMenu && (wasInitializing || wasAuthenticated != snap.IsAuthenticated()) {
		a.menu = menu.New(a.username())
		return a.menu.Init()
	}
	return nil
}

// guard sends an anonymous user to login, remembering dest
func (a *App) guard(dest destination) (tea.Cmd, bool) {
	var err error
	if a.session == nil {
		err = &session.RedirectError{Next: dest.screen.String()}
	} else {
		err = a.session.Require(dest.screen.String())
	}

	var redirect *session.RedirectError
	if !errors.As(err, &redirect) {
		return nil, true
	}

	slog.Debug("Login required", "next", redirect.LoginPath())
	a.next = &dest
	a.auth = authform.NewLogin(LoginNotice)
	a.screen = ScreenLogin
	return a.auth.Init(), false
}

// goTo switches screens, loading whatever the target needs
func (a *App) goTo(dest destination) tea.Cmd {
	switch dest.screen {
	case ScreenMenu:
		a.screen = ScreenMenu
		a.menu = menu.New(a.username())
		return a.menu.Init()

	case ScreenHome:
		a.screen = ScreenHome
		return a.startLoading(a.loadHome())

	case ScreenPolls:
		if a.list == nil {
			a.list = polllist.New(a.pageSize, a.innerWidth(), a.contentHeight())
		}
		a.screen = ScreenPolls
		return a.startLoading(a.loadPolls(a.list.Page()))

	case ScreenPoll:
		if a.screen != ScreenPoll && a.screen != ScreenLogin {
			a.back = a.screen
		}
		a.screen = ScreenPoll
		return a.openPoll(dest.pollID)

	case ScreenCreate:
		if cmd, ok := a.guard(dest); !ok {
			return cmd
		}
		a.create = pollform.New()
		a.create.SetWidth(a.innerWidth())
		a.screen = ScreenCreate
		return a.create.Init()

	case ScreenLogin:
		a.auth = authform.NewLogin("")
		a.screen = ScreenLogin
		return a.auth.Init()

	case ScreenRegister:
		a.auth = authform.NewRegister()
		a.screen = ScreenRegister
		return a.auth.Init()

	case ScreenProfile:
		if cmd, ok := a.guard(dest); !ok {
			return cmd
		}
		a.screen = ScreenProfile
		a.profile = nil
		return a.startLoading(a.loadProfile())
	}
	return nil
}

func (a *App) openPoll(id string) tea.Cmd {
	a.pollID = id
	a.pollErr = ""
	a.notFound = false
	a.detail = nil
	return a.startLoading(a.loadPoll(id))
}

func (a *App) startLoading(cmd tea.Cmd) tea.Cmd {
	a.loading = true
	return tea.Batch(cmd, a.spinner.Tick)
}

func (a *App) handleMenu(item menu.Item) tea.Cmd {
	a.notice = ""
	switch item {
	case menu.ItemHome:
		return a.goTo(destination{screen: ScreenHome})
	case menu.ItemBrowse:
		return a.goTo(destination{screen: ScreenPolls})
	case menu.ItemCreate:
		return a.goTo(destination{screen: ScreenCreate})
	case menu.ItemProfile:
		return a.goTo(destination{screen: ScreenProfile})
	case menu.ItemLogin:
		return a.goTo(destination{screen: ScreenLogin})
	case menu.ItemRegister:
		return a.goTo(destination{screen: ScreenRegister})
	case menu.ItemLogout:
		if a.session != nil {
			a.session.Logout()
			a.snap = a.session.Snapshot()
		}
		a.liked = make(map[string]bool)
		a.notice = "Logged out"
		return a.goTo(destination{screen: ScreenMenu})
	case menu.ItemQuit:
		return tea.Quit
	}
	return nil
}

func (a *App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" {
		return a, tea.Quit
	}
	if a.menu == nil {
		return a, nil
	}
	_, cmd := a.menu.Update(msg)
	return a, cmd
}

func (a *App) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		return a, a.goTo(destination{screen: ScreenHome})
	case "p":
		return a, a.goTo(destination{screen: ScreenPolls})
	case "c":
		return a, a.goTo(destination{screen: ScreenCreate})
	case "b", "esc":
		return a, a.goTo(destination{screen: ScreenMenu})
	}
	return a, nil
}

func (a *App) updatePolls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.list == nil {
		return a, nil
	}

	if a.list.Searching() {
		switch msg.String() {
		case "esc":
			a.list.ClearSearch()
			a.list.StopSearch()
			return a, nil
		case "enter":
			a.list.StopSearch()
			return a, nil
		}
		return a, a.list.UpdateSearch(msg)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		a.list.MoveUp()
	case "down", "j":
		a.list.MoveDown()
	case "enter":
		if p, ok := a.list.Selected(); ok {
			return a, a.goTo(destination{screen: ScreenPoll, pollID: p.ID})
		}
	case "/":
		return a, a.list.StartSearch()
	case "n":
		if a.list.HasNext() {
			return a, a.startLoading(a.loadPolls(a.list.Page() + 1))
		}
	case "p":
		if a.list.HasPrev() {
			return a, a.startLoading(a.loadPolls(a.list.Page() - 1))
		}
	case "r":
		return a, a.startLoading(a.loadPolls(a.list.Page()))
	case "c":
		return a, a.goTo(destination{screen: ScreenCreate})
	case "b", "esc":
		return a, a.goTo(destination{screen: ScreenMenu})
	}
	return a, nil
}

func (a *App) updatePoll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "b", "esc":
		return a, a.goBack()
	case "r":
		return a, a.openPoll(a.pollID)
	}

	d := a.detail
	if d == nil {
		return a, nil
	}

	switch msg.String() {
	case "up", "k":
		d.MoveUp()
	case "down", "j":
		d.MoveDown()
	case " ", "x":
		d.Toggle()
	case "enter":
		if !d.CanVote() {
			return a, nil
		}
		a.loading = true
		return a, tea.Batch(a.castVote(d.Poll().ID, d.Choice()), a.spinner.Tick)
	case "l":
		if cmd, ok := a.guard(destination{screen: ScreenPoll, pollID: d.Poll().ID}); !ok {
			return a, cmd
		}
		a.loading = true
		return a, tea.Batch(a.toggleLike(d.Poll().ID, !d.Liked()), a.spinner.Tick)
	case "s":
		d.ToggleQR()
	}
	return a, nil
}

func (a *App) goBack() tea.Cmd {
	switch a.back {
	case ScreenPolls:
		if a.list != nil {
			a.screen = ScreenPolls
			return nil
		}
		return a.goTo(destination{screen: ScreenPolls})
	case ScreenProfile:
		if a.profile != nil {
			a.screen = ScreenProfile
			return nil
		}
		return a.goTo(destination{screen: ScreenProfile})
	case ScreenHome:
		if a.home != nil {
			a.screen = ScreenHome
			return nil
		}
		return a.goTo(destination{screen: ScreenHome})
	}
	return a.goTo(destination{screen: ScreenMenu})
}

func (a *App) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.create == nil {
		return a, nil
	}
	_, cmd := a.create.Update(msg)
	return a, cmd
}

func (a *App) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.auth == nil {
		return a, nil
	}
	_, cmd := a.auth.Update(msg)
	return a, cmd
}

func (a *App) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "b", "esc":
		return a, a.goTo(destination{screen: ScreenMenu})
	case "r":
		return a, a.goTo(destination{screen: ScreenProfile})
	case "c":
		return a, a.goTo(destination{screen: ScreenCreate})
	}

	p := a.profile
	if p == nil {
		return a, nil
	}
	switch msg.String() {
	case "tab":
		p.NextTab()
	case "1":
		p.SetTab(profile.TabPolls)
	case "2":
		p.SetTab(profile.TabVotes)
	case "3":
		p.SetTab(profile.TabLikes)
	case "up", "k":
		p.MoveUp()
	case "down", "j":
		p.MoveDown()
	case "enter":
		if id, ok := p.SelectedPollID(); ok {
			return a, a.goTo(destination{screen: ScreenPoll, pollID: id})
		}
	}
	return a, nil
}

func (a *App) handlePollsLoaded(msg pollsLoadedMsg) tea.Cmd {
	a.loading = false
	if a.list == nil {
		a.list = polllist.New(a.pageSize, a.innerWidth(), a.contentHeight())
	}
	if !msg.res.Success {
		a.list.SetError(msg.res.Failure(feed.PollsFailed))
		return nil
	}
	var page client.Page[client.Poll]
	if msg.res.Data != nil {
		page = *msg.res.Data
	}
	a.list.SetPage(msg.page, page)
	a.lastUpdate = time.Now()
	return nil
}

func (a *App) handlePollLoaded(msg pollLoadedMsg) tea.Cmd {
	if msg.id != a.pollID {
		return nil
	}
	a.loading = false
	if msg.detail.Poll == nil {
		a.pollErr = msg.detail.Err
		a.notFound = msg.detail.NotFound
		return nil
	}

	p := *msg.detail.Poll
	a.detail = polldetail.New(p, msg.detail.Stats, share.URL(a.shareBaseURL, p.ID), a.innerWidth())
	a.detail.SetVoted(a.voted[p.ID])
	a.detail.SetLiked(a.liked[p.ID])
	a.lastUpdate = time.Now()
	return nil
}

func (a *App) handleVoteCast(msg voteCastMsg) tea.Cmd {
	a.loading = false
	if a.detail == nil || a.detail.Poll().ID != msg.pollID {
		return nil
	}
	if !msg.res.Success {
		a.detail.SetNotice(msg.res.Failure("Failed to cast vote"), widgets.StatusCritical)
		return nil
	}
	a.voted[msg.pollID] = true
	a.detail.ApplyVote(msg.optionIDs)
	a.detail.SetNotice("Vote recorded", widgets.StatusOK)
	return nil
}

func (a *App) handleLikeToggled(msg likeToggledMsg) tea.Cmd {
	a.loading = false
	if a.detail == nil || a.detail.Poll().ID != msg.pollID {
		return nil
	}
	if !msg.res.Success {
		a.detail.SetNotice(msg.res.Failure("Failed to update like"), widgets.StatusCritical)
		return nil
	}
	var status client.LikeStatus
	if msg.res.Data != nil {
		status = *msg.res.Data
	} else {
		// accepted without a like status: move the count locally
		status = client.LikeStatus{
			PollID:     msg.pollID,
			Liked:      msg.like,
			LikesCount: pollview.ApplyLike(a.detail.Poll(), msg.like).LikesCount,
		}
	}
	a.liked[msg.pollID] = status.Liked
	a.detail.ApplyLike(status)
	a.detail.SetNotice("", widgets.StatusNeutral)
	return nil
}

func (a *App) handlePollCreated(msg pollCreatedMsg) tea.Cmd {
	a.loading = false
	if !msg.res.OK() {
		if a.create == nil {
			return nil
		}
		return a.create.SetError(msg.res.Failure("Failed to create poll"))
	}

	p := *msg.res.Data
	slog.Info("Poll created", "poll_id", p.ID)
	a.create = nil
	a.back = ScreenPolls
	a.list = nil
	a.screen = ScreenPoll
	a.pollID = p.ID
	a.pollErr = ""
	a.detail = polldetail.New(p, nil, share.URL(a.shareBaseURL, p.ID), a.innerWidth())
	a.detail.SetNotice("Poll created", widgets.StatusOK)
	a.lastUpdate = time.Now()
	return nil
}

func (a *App) handleAuthDone(msg authDoneMsg) tea.Cmd {
	a.loading = false
	if msg.err != nil {
		if a.auth == nil {
			return nil
		}
		return a.auth.SetError(msg.err.Error())
	}

	if a.session != nil {
		a.snap = a.session.Snapshot()
	}
	a.auth = nil
	dest := destination{screen: ScreenHome}
	if a.next != nil {
		dest = *a.next
		a.next = nil
	}
	return a.goTo(dest)
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch {
	case a.busy():
		content = a.viewLoading()
	case a.screen == ScreenHome && a.home != nil:
		content = a.viewPanel(a.home.View())
	case a.screen == ScreenPolls && a.list != nil:
		content = a.viewPanel(a.list.View())
	case a.screen == ScreenPoll:
		content = a.viewPoll()
	case a.screen == ScreenCreate && a.create != nil:
		content = a.viewPanel(a.create.View())
	case a.screen == ScreenLogin || a.screen == ScreenRegister:
		content = a.viewAuth()
	case a.screen == ScreenProfile && a.profile != nil:
		content = a.viewPanel(a.profile.View())
	case a.screen == ScreenMenu:
		content = a.viewMenu()
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewLoading() string {
	label := "Loading..."
	switch {
	case a.snap.State == session.StateInitializing:
		label = "Restoring session..."
	case a.snap.Loading:
		label = "Signing in..."
	}
	return styles.Panel.Width(a.panelWidth()).Render(a.spinner.View() + " " + label)
}

func (a *App) viewMenu() string {
	var sb strings.Builder
	if a.notice != "" {
		sb.WriteString(widgets.StatusText(a.notice, widgets.StatusInfo))
		sb.WriteString("\n\n")
	}
	if a.menu != nil {
		sb.WriteString(a.menu.View())
	}
	return sb.String()
}

func (a *App) viewPanel(body string) string {
	return styles.ActivePanel.Width(a.panelWidth()).Render(body)
}

func (a *App) viewPoll() string {
	if a.detail != nil {
		return a.viewPanel(a.detail.View())
	}

	msg := a.pollErr
	if a.notFound {
		msg = "Poll not found"
	}
	if msg == "" {
		return ""
	}
	body := widgets.StatusText(msg, widgets.StatusCritical) + "\n\n" + styles.Help.Render("Press r to retry or b to go back")
	return styles.Panel.Width(a.panelWidth()).Render(body)
}

func (a *App) viewAuth() string {
	if a.auth == nil {
		return ""
	}
	return a.viewPanel(a.auth.View())
}

// frameWidth is one column short of the terminal so the right border never
// wraps, but never below the minimum
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// panelWidth is the lipgloss Width for bordered panels, which excludes the border
func (a *App) panelWidth() int {
	return a.frameWidth() - 2
}

// innerWidth is the space children render into inside a padded panel
func (a *App) innerWidth() int {
	return a.panelWidth() - panelPadding
}

// contentHeight calculates the height available inside a panel
func (a *App) contentHeight() int {
	// header, its newline, panel border and padding (4), newline, footer
	return a.height - 8
}

// renderHeader creates the top border with the app title
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("QuickPoll"))

	who := "anonymous"
	switch {
	case a.snap.State == session.StateInitializing:
		who = "…"
	case a.snap.User != nil:
		who = icons.User.String() + " " + a.snap.User.Username
	}
	rightText := " " + contextStyle.Render(who) + " "

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮")
}

// shortcuts lists the key hints for the current screen
func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenHome:
		return []string{"p Polls", "c Create", "r Refresh", "b Back", "q Quit"}
	case ScreenPolls:
		if a.list != nil && a.list.Searching() {
			return []string{"Enter Done", "Esc Clear"}
		}
		return []string{"↑↓ Navigate", "Enter Open", "/ Search", "n/p Page", "r Refresh", "b Back"}
	case ScreenPoll:
		return []string{"↑↓ Option", "Space Toggle", "Enter Vote", "l Like", "s QR", "b Back"}
	case ScreenCreate, ScreenLogin, ScreenRegister:
		return []string{"Tab Next", "Enter Confirm", "Esc Cancel"}
	case ScreenProfile:
		return []string{"Tab Section", "↑↓ Navigate", "Enter Open", "r Refresh", "b Back"}
	}
	return nil
}

// renderFooter creates the bottom border with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}

	leftText := " " + strings.Join(styled, "  ") + " "
	leftPlain := " " + strings.Join(shortcuts, "  ") + " "

	rightText, rightPlain := "", ""
	if !a.lastUpdate.IsZero() && a.screen != ScreenMenu && a.screen != ScreenCreate &&
		a.screen != ScreenLogin && a.screen != ScreenRegister {
		elapsed := "Updated " + formatTimeSince(time.Since(a.lastUpdate))
		rightText = " " + statusStyle.Render(elapsed) + " "
		rightPlain = " " + elapsed + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftPlain) - lipgloss.Width(rightPlain) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		// drop the status before letting the footer overflow
		fillWidth += lipgloss.Width(rightPlain)
		rightText = ""
		if fillWidth < 0 {
			fillWidth = 0
		}
	}

	return borderStyle.Render("╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯")
}

// formatTimeSince formats an elapsed duration in compact form
func formatTimeSince(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

func (a *App) initSession() tea.Cmd {
	return func() tea.Msg {
		a.session.Init(context.Background())
		return sessionMsg{snap: a.session.Snapshot()}
	}
}

func (a *App) loadHome() tea.Cmd {
	api, size := a.client, a.pageSize
	return func() tea.Msg {
		return homeLoadedMsg{home: feed.LoadHome(context.Background(), api, size)}
	}
}

func (a *App) loadPolls(page int) tea.Cmd {
	api, size := a.client, a.pageSize
	return func() tea.Msg {
		res := api.ListPolls(context.Background(), (page-1)*size, size)
		return pollsLoadedMsg{page: page, res: res}
	}
}

func (a *App) loadPoll(id string) tea.Cmd {
	api := a.client
	return func() tea.Msg {
		return pollLoadedMsg{id: id, detail: feed.LoadDetail(context.Background(), api, id)}
	}
}

func (a *App) loadProfile() tea.Cmd {
	api := a.client
	var user client.User
	if a.snap.User != nil {
		user = *a.snap.User
	}
	return func() tea.Msg {
		return profileLoadedMsg{user: user, profile: feed.LoadProfile(context.Background(), api, user.ID)}
	}
}

func (a *App) castVote(pollID string, optionIDs []string) tea.Cmd {
	api := a.client
	var anon *anonid.Provider
	if !a.snap.IsAuthenticated() {
		anon = a.anon
	}
	return func() tea.Msg {
		// Get may touch the disk, so it runs off the update loop
		anonID := ""
		if anon != nil {
			anonID = anon.Get()
		}
		res := api.CastVote(context.Background(), pollID, optionIDs, anonID)
		return voteCastMsg{pollID: pollID, optionIDs: optionIDs, res: res}
	}
}

func (a *App) toggleLike(pollID string, like bool) tea.Cmd {
	api := a.client
	return func() tea.Msg {
		var res client.Result[client.LikeStatus]
		if like {
			res = api.LikePoll(context.Background(), pollID)
		} else {
			res = api.UnlikePoll(context.Background(), pollID)
		}
		return likeToggledMsg{pollID: pollID, like: like, res: res}
	}
}

func (a *App) createPoll(req client.CreatePollRequest) tea.Cmd {
	api := a.client
	return func() tea.Msg {
		return pollCreatedMsg{res: api.CreatePoll(context.Background(), req)}
	}
}

func (a *App) authenticate(msg authform.SubmitMsg) tea.Cmd {
	store := a.session
	return func() tea.Msg {
		if store == nil {
			return authDoneMsg{err: errors.New("no session available")}
		}
		ctx := context.Background()
		if msg.Mode == authform.ModeRegister {
			r := msg.Register
			return authDoneMsg{err: store.Register(ctx, r.Username, r.Email, r.Password)}
		}
		return authDoneMsg{err: store.Login(ctx, msg.Login.Identifier, msg.Login.Password)}
	}
}

// Run starts the TUI
func Run(opts Options) error {
	app := New(opts)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	if opts.Session != nil {
		unsubscribe := opts.Session.Subscribe(func(s session.Snapshot) {
			go p.Send(sessionMsg{snap: s})
		})
		defer unsubscribe()
	}

	_, err := p.Run()
	return err
}
