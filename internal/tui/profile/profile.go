// ABOUTME: Profile screen with tabs for the user's polls, votes and likes
// ABOUTME: Renders a feed.Profile snapshot; the polls tab supports opening a poll

package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/pollview"
	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/styles"
	"github.com/markalston/quickpoll/internal/tui/widgets"
)

// Tab is a profile section
type Tab int

const (
	TabPolls Tab = iota
	TabVotes
	TabLikes
)

var tabNames = []string{"My Polls", "My Votes", "Liked"}

// Profile displays a user's activity
type Profile struct {
	user   client.User
	data   feed.Profile
	tab    Tab
	cursor int
	width  int
	now    func() time.Time
}

// New creates the profile screen
func New(user client.User, data feed.Profile, width int) *Profile {
	return &Profile{user: user, data: data, width: width, now: time.Now}
}

// SetWidth updates the render width
func (p *Profile) SetWidth(width int) {
	p.width = width
}

// Tab returns the active tab
func (p *Profile) Tab() Tab {
	return p.tab
}

// SetTab switches to t
func (p *Profile) SetTab(t Tab) {
	if t < TabPolls || t > TabLikes {
		return
	}
	p.tab = t
	p.cursor = 0
}

// NextTab cycles through the tabs
func (p *Profile) NextTab() {
	p.SetTab((p.tab + 1) % Tab(len(tabNames)))
}

func (p *Profile) rows() int {
	switch p.tab {
	case TabVotes:
		return len(p.data.Votes)
	case TabLikes:
		return len(p.data.Likes)
	default:
		return len(p.data.Polls)
	}
}

// MoveUp moves the cursor up
func (p *Profile) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the cursor down
func (p *Profile) MoveDown() {
	if p.cursor < p.rows()-1 {
		p.cursor++
	}
}

// SelectedPollID returns the poll behind the row under the cursor
func (p *Profile) SelectedPollID() (string, bool) {
	if p.cursor >= p.rows() {
		return "", false
	}
	switch p.tab {
	case TabVotes:
		return p.data.Votes[p.cursor].PollID, true
	case TabLikes:
		return p.data.Likes[p.cursor].PollID, true
	default:
		return p.data.Polls[p.cursor].ID, true
	}
}

// View renders the profile
func (p *Profile) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.User.String() + " " + p.user.Username))
	sb.WriteString("\n")
	details := p.user.Email
	if joined := pollview.FormatAge(p.user.CreatedAt, p.now()); joined != "" {
		if details != "" {
			details += " · "
		}
		details += "joined " + joined
	}
	if details != "" {
		sb.WriteString(styles.Subtitle.Render(details))
		sb.WriteString("\n")
	}

	counts := []int{len(p.data.Polls), len(p.data.Votes), len(p.data.Likes)}
	var tabs []string
	for i, name := range tabNames {
		label := fmt.Sprintf("%s (%d)", name, counts[i])
		if Tab(i) == p.tab {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTab.Render(label))
		}
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	sb.WriteString("\n\n")

	if p.data.Err != "" {
		sb.WriteString(widgets.StatusText(p.data.Err, widgets.StatusCritical))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Press r to retry"))
		return sb.String()
	}

	switch p.tab {
	case TabVotes:
		sb.WriteString(p.viewVotes())
	case TabLikes:
		sb.WriteString(p.viewLikes())
	default:
		sb.WriteString(p.viewPolls())
	}
	return sb.String()
}

func (p *Profile) marker(i int) string {
	if i == p.cursor {
		return styles.Selected.Render("> ")
	}
	return "  "
}

func (p *Profile) viewPolls() string {
	if len(p.data.Polls) == 0 {
		return "You have not created any polls yet. Press c to create one."
	}
	var sb strings.Builder
	now := p.now()
	for i, poll := range p.data.Polls {
		sb.WriteString(fmt.Sprintf("%s%s %s  %s  %s\n", p.marker(i), poll.Title, widgets.PollBadge(poll),
			pollview.Votes(poll.TotalVotes), pollview.FormatAge(poll.CreatedAt, now)))
	}
	return sb.String()
}

func (p *Profile) viewVotes() string {
	if len(p.data.Votes) == 0 {
		return "You have not voted yet."
	}
	var sb strings.Builder
	now := p.now()
	for i, v := range p.data.Votes {
		sb.WriteString(fmt.Sprintf("%sPoll %s · option %s  %s\n", p.marker(i), v.PollID, v.OptionID,
			pollview.FormatAge(v.CreatedAt, now)))
	}
	return sb.String()
}

func (p *Profile) viewLikes() string {
	if len(p.data.Likes) == 0 {
		return "You have not liked any polls yet."
	}
	var sb strings.Builder
	now := p.now()
	for i, l := range p.data.Likes {
		sb.WriteString(fmt.Sprintf("%s%s Poll %s  %s\n", p.marker(i), icons.Like.String(), l.PollID,
			pollview.FormatAge(l.CreatedAt, now)))
	}
	return sb.String()
}

// LikedPolls returns the ids of polls the user likes
func (p *Profile) LikedPolls() []string {
	ids := make([]string, 0, len(p.data.Likes))
	for _, l := range p.data.Likes {
		ids = append(ids, l.PollID)
	}
	return ids
}
