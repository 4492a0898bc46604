// ABOUTME: Poll list screen with search, cursor selection and paging
// ABOUTME: Failed loads keep an empty list and show the error with a retry hint

package polllist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/pollview"
	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/styles"
	"github.com/markalston/quickpoll/internal/tui/widgets"
)

// DefaultPageSize is used when no page size is given
const DefaultPageSize = 20

// List displays one page of polls
type List struct {
	polls    []client.Poll
	page     int
	pageSize int
	total    int
	cursor   int
	err      string

	// false when the server sent a bare array without a count
	totalKnown bool

	search    textinput.Model
	searching bool

	width  int
	height int
	now    func() time.Time
}

// New creates an empty list on page 1
func New(pageSize, width, height int) *List {
	ti := textinput.New()
	ti.Placeholder = "Search polls..."
	ti.Prompt = icons.Search.String() + " "
	ti.CharLimit = 100
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &List{
		page:     1,
		pageSize: pageSize,
		search:   ti,
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

// SetPage replaces the list contents with a loaded page
func (l *List) SetPage(page int, p client.Page[client.Poll]) {
	l.page = page
	l.polls = p.Items
	l.total = p.Total
	l.totalKnown = p.Total > 0
	if l.total < len(p.Items) {
		l.total = (page-1)*l.pageSize + len(p.Items)
	}
	l.err = ""
	l.cursor = 0
}

// SetError records a failed load. The list is emptied.
func (l *List) SetError(msg string) {
	l.err = msg
	l.polls = nil
	l.cursor = 0
}

// Err returns the last load error
func (l *List) Err() string {
	return l.err
}

// SetSize updates the list dimensions
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Page returns the current 1-based page
func (l *List) Page() int {
	return l.page
}

// HasNext reports whether another page exists after this one
func (l *List) HasNext() bool {
	if !l.totalKnown {
		return len(l.polls) >= l.pageSize
	}
	return l.page*l.pageSize < l.total
}

// HasPrev reports whether a page exists before this one
func (l *List) HasPrev() bool {
	return l.page > 1
}

// Visible returns the polls on this page that match the search box
func (l *List) Visible() []client.Poll {
	return pollview.Filter(l.polls, l.search.Value())
}

// Selected returns the poll under the cursor
func (l *List) Selected() (client.Poll, bool) {
	visible := l.Visible()
	if l.cursor < 0 || l.cursor >= len(visible) {
		return client.Poll{}, false
	}
	return visible[l.cursor], true
}

// MoveUp moves the cursor up one row
func (l *List) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// MoveDown moves the cursor down one row
func (l *List) MoveDown() {
	if l.cursor < len(l.Visible())-1 {
		l.cursor++
	}
}

// Searching reports whether the search box has focus
func (l *List) Searching() bool {
	return l.searching
}

// StartSearch focuses the search box
func (l *List) StartSearch() tea.Cmd {
	l.searching = true
	return l.search.Focus()
}

// StopSearch blurs the search box, keeping the query
func (l *List) StopSearch() {
	l.searching = false
	l.search.Blur()
}

// ClearSearch empties the search box
func (l *List) ClearSearch() {
	l.search.SetValue("")
	l.cursor = 0
}

// UpdateSearch forwards input to the search box
func (l *List) UpdateSearch(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.search, cmd = l.search.Update(msg)
	if visible := len(l.Visible()); l.cursor >= visible {
		l.cursor = max(0, visible-1)
	}
	return cmd
}

// View renders the list
func (l *List) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Poll.String() + " Polls"))
	sb.WriteString("\n")
	sb.WriteString(l.search.View())
	sb.WriteString("\n\n")

	if l.err != "" {
		sb.WriteString(widgets.StatusText(l.err, widgets.StatusCritical))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Press r to retry"))
		return sb.String()
	}

	visible := l.Visible()
	if len(visible) == 0 {
		if q := strings.TrimSpace(l.search.Value()); q != "" {
			sb.WriteString(fmt.Sprintf("No polls match %q.", q))
		} else {
			sb.WriteString("No polls yet. Press c to create one.")
		}
		return sb.String()
	}

	now := l.now()
	muted := lipgloss.NewStyle().Foreground(styles.Muted)
	for i, p := range visible {
		marker := "  "
		title := p.Title
		if i == l.cursor {
			marker = styles.Selected.Render("> ")
			title = styles.Selected.Render(title)
		}

		share := 0.0
		if leader, ok := pollview.Leader(p); ok {
			share = pollview.Percent(leader.VoteCount, p.TotalVotes)
		}

		sb.WriteString(fmt.Sprintf("%s%s %s\n", marker, title, widgets.PollBadge(p)))
		sb.WriteString(fmt.Sprintf("    %s %s  %s %s  %s\n",
			widgets.CompactProgressBar(share, 10, styles.Secondary),
			muted.Render(pollview.Votes(p.TotalVotes)),
			lipgloss.NewStyle().Foreground(styles.Like).Render(icons.Like.String()),
			muted.Render(pollview.FormatCount(p.LikesCount)),
			muted.Render(pollview.FormatAge(p.CreatedAt, now))))
	}

	sb.WriteString("\n")
	if !l.totalKnown {
		sb.WriteString(muted.Render(fmt.Sprintf("Page %d", l.page)))
		return sb.String()
	}
	pages := (l.total + l.pageSize - 1) / l.pageSize
	if pages < 1 {
		pages = 1
	}
	sb.WriteString(muted.Render(fmt.Sprintf("Page %d of %d  (%s polls)", l.page, pages, pollview.FormatCount(l.total))))
	return sb.String()
}
