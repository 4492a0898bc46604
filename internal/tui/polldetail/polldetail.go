// ABOUTME: Poll detail screen with result bars, vote selection, likes and sharing
// ABOUTME: Votes and likes are applied locally once the server accepts them

package polldetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/pollview"
	"github.com/markalston/quickpoll/internal/share"
	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/styles"
	"github.com/markalston/quickpoll/internal/tui/widgets"
)

// Detail displays a single poll
type Detail struct {
	poll   client.Poll
	stats  *client.VoteStats
	link   string
	cursor int
	chosen map[string]bool
	voted  bool
	liked  bool

	showQR bool
	qr     string

	notice      string
	noticeLevel widgets.StatusLevel

	width int
}

// New creates the detail screen for a loaded poll
func New(poll client.Poll, stats *client.VoteStats, link string, width int) *Detail {
	return &Detail{
		poll:   poll,
		stats:  stats,
		link:   link,
		chosen: make(map[string]bool),
		width:  width,
	}
}

// Poll returns the poll as currently shown, including local updates
func (d *Detail) Poll() client.Poll {
	return d.poll
}

// Link returns the share link
func (d *Detail) Link() string {
	return d.link
}

// SetWidth updates the render width
func (d *Detail) SetWidth(width int) {
	d.width = width
}

// MoveUp moves the option cursor up
func (d *Detail) MoveUp() {
	if d.cursor > 0 {
		d.cursor--
	}
}

// MoveDown moves the option cursor down
func (d *Detail) MoveDown() {
	if d.cursor < len(d.poll.Options)-1 {
		d.cursor++
	}
}

// Toggle selects the option under the cursor. Single-choice polls keep one selection.
func (d *Detail) Toggle() {
	if d.cursor >= len(d.poll.Options) {
		return
	}
	id := d.poll.Options[d.cursor].ID
	if !d.poll.AllowMultiple {
		was := d.chosen[id]
		d.chosen = map[string]bool{}
		if !was {
			d.chosen[id] = true
		}
		return
	}
	d.chosen[id] = !d.chosen[id]
}

// Choice returns the option ids to vote for, in option order. With nothing
// toggled, the option under the cursor is used.
func (d *Detail) Choice() []string {
	var ids []string
	for _, opt := range d.poll.Options {
		if d.chosen[opt.ID] {
			ids = append(ids, opt.ID)
		}
	}
	if len(ids) == 0 && d.cursor < len(d.poll.Options) {
		ids = []string{d.poll.Options[d.cursor].ID}
	}
	return ids
}

// Open reports whether the poll accepts votes
func (d *Detail) Open() bool {
	return d.poll.IsActive && !d.poll.IsExpired
}

// CanVote reports whether a vote may be cast from this screen
func (d *Detail) CanVote() bool {
	return d.Open() && !d.voted && len(d.poll.Options) > 0
}

// Voted reports whether a vote was cast from this client
func (d *Detail) Voted() bool {
	return d.voted
}

// SetVoted marks the poll as already voted on
func (d *Detail) SetVoted(voted bool) {
	d.voted = voted
}

// ApplyVote adds an accepted vote to the shown counts
func (d *Detail) ApplyVote(optionIDs []string) {
	d.poll = pollview.ApplyVote(d.poll, optionIDs)
	d.voted = true
	d.chosen = map[string]bool{}
}

// Liked reports whether the user likes the poll
func (d *Detail) Liked() bool {
	return d.liked
}

// SetLiked sets the like state without changing the count
func (d *Detail) SetLiked(liked bool) {
	d.liked = liked
}

// ApplyLike records the like state returned by the server
func (d *Detail) ApplyLike(status client.LikeStatus) {
	d.liked = status.Liked
	d.poll.LikesCount = status.LikesCount
}

// ToggleQR shows or hides the QR code for the share link
func (d *Detail) ToggleQR() {
	d.showQR = !d.showQR
	if d.showQR && d.qr == "" {
		qr, err := share.QR(d.link)
		if err != nil {
			d.SetNotice(err.Error(), widgets.StatusCritical)
			d.showQR = false
			return
		}
		d.qr = qr
	}
}

// SetNotice shows a one-line message above the results
func (d *Detail) SetNotice(text string, level widgets.StatusLevel) {
	d.notice = text
	d.noticeLevel = level
}

// Notice returns the current message
func (d *Detail) Notice() string {
	return d.notice
}

// View renders the poll
func (d *Detail) View() string {
	var sb strings.Builder
	p := d.poll

	sb.WriteString(styles.Title.Render(p.Title))
	sb.WriteString("\n")
	if p.Description != "" {
		sb.WriteString(styles.Subtitle.Render(p.Description))
		sb.WriteString("\n")
	}

	mode := "Single choice"
	if p.AllowMultiple {
		mode = "Multiple choice"
	}
	heart := icons.Like.String()
	if d.liked {
		heart = lipgloss.NewStyle().Foreground(styles.Like).Render(heart)
	}
	sb.WriteString(fmt.Sprintf("%s  %s  %s  %s %s\n\n",
		widgets.PollBadge(p), mode, pollview.Votes(p.TotalVotes), heart, pollview.FormatCount(p.LikesCount)))

	if d.notice != "" {
		sb.WriteString(widgets.StatusText(d.notice, d.noticeLevel))
		sb.WriteString("\n\n")
	}

	sb.WriteString(d.renderOptions())

	if d.stats != nil {
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%s unique voters · %s signed in · %s anonymous",
			pollview.FormatCount(d.stats.UniqueVoters),
			pollview.FormatCount(d.stats.AuthenticatedVotes),
			pollview.FormatCount(d.stats.AnonymousVotes))))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s", icons.Share.String(), d.link))
	if d.showQR {
		sb.WriteString("\n\n")
		sb.WriteString(d.qr)
	}

	return lipgloss.NewStyle().Width(d.width).Render(sb.String())
}

func (d *Detail) renderOptions() string {
	var sb strings.Builder
	p := d.poll
	leader, hasLeader := pollview.Leader(p)
	barCfg := widgets.DefaultResultBarConfig()

	textWidth := 0
	for _, opt := range p.Options {
		textWidth = max(textWidth, lipgloss.Width(opt.Text))
	}

	for i, opt := range p.Options {
		cursor := "  "
		if d.CanVote() && i == d.cursor {
			cursor = styles.Selected.Render("> ")
		}
		check := ""
		if d.CanVote() {
			check = "( ) "
			if p.AllowMultiple {
				check = "[ ] "
			}
			if d.chosen[opt.ID] {
				check = strings.Replace(check, " ", "x", 1)
			}
		}

		isLeader := hasLeader && p.TotalVotes > 0 && opt.ID == leader.ID
		text := opt.Text + strings.Repeat(" ", textWidth-lipgloss.Width(opt.Text))
		if isLeader {
			text = styles.StatusOK.Render(text)
		}
		percent := pollview.Percent(opt.VoteCount, p.TotalVotes)
		sb.WriteString(fmt.Sprintf("%s%s%s  %s %3d%%  %s\n",
			cursor, check, text,
			widgets.ResultBar(percent, isLeader, barCfg),
			pollview.RoundPercent(opt.VoteCount, p.TotalVotes),
			pollview.Votes(opt.VoteCount)))
	}

	switch {
	case !d.Open():
		sb.WriteString(styles.Help.Render("This poll is no longer accepting votes"))
		sb.WriteString("\n")
	case d.voted:
		sb.WriteString(widgets.StatusText("You voted on this poll", widgets.StatusOK))
		sb.WriteString("\n")
	}
	return sb.String()
}
