// ABOUTME: Home screen showing backend status, totals, trending and recent polls
// ABOUTME: Renders a feed.Home snapshot; loading happens in the app

package home

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

// recentShown caps the recent list on the home screen
const recentShown = 5

// Home displays the landing view
type Home struct {
	data  feed.Home
	width int
	now   func() time.Time
}

// New creates the home screen for loaded data
func New(data feed.Home, width int) *Home {
	return &Home{data: data, width: width, now: time.Now}
}

// SetWidth updates the render width
func (h *Home) SetWidth(width int) {
	h.width = width
}

// Data returns the snapshot being shown
func (h *Home) Data() feed.Home {
	return h.data
}

// voteActivity lists recent polls' vote totals, oldest first
func voteActivity(polls []client.Poll) []int {
	counts := make([]int, len(polls))
	for i, p := range polls {
		counts[len(polls)-1-i] = p.TotalVotes
	}
	return counts
}

// View renders the home screen
func (h *Home) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.App.String() + " Welcome to QuickPoll"))
	sb.WriteString("\n")

	cfg := widgets.DefaultMetricBlockConfig()
	backend, backendNote := "Online", "API reachable"
	if !h.data.Healthy {
		backend, backendNote = "Offline", h.data.Health.Failure("health check failed")
	}
	blocks := []string{
		widgets.MetricBlock(icons.Poll, "Polls", pollview.FormatCount(h.data.Total), "created so far", cfg),
		widgets.MetricBlockWithSparkline(icons.Vote, "Votes", pollview.FormatCount(h.data.TotalVotes),
			voteActivity(h.data.Recent), "on recent polls", cfg),
		widgets.MetricBlock(icons.Server, "Backend", backend, backendNote, cfg),
	}
	if h.width > 0 && h.width < 3*cfg.Width {
		sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	} else {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks[0], " ", blocks[1], " ", blocks[2]))
	}
	sb.WriteString("\n\n")

	if h.data.Err != "" {
		sb.WriteString(widgets.StatusText(h.data.Err, widgets.StatusCritical))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Press r to retry"))
		return sb.String()
	}

	if len(h.data.Trending) > 0 {
		sb.WriteString(styles.Subtitle.Render(icons.Trending.String() + " Trending"))
		sb.WriteString("\n")
		for i, p := range h.data.Trending {
			sb.WriteString(fmt.Sprintf("  %d. %s  %s %s\n", i+1,
				styles.ValueStyle.Render(p.Title),
				lipgloss.NewStyle().Foreground(styles.Like).Render(icons.Like.String()),
				pollview.FormatCount(p.LikesCount)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(styles.Subtitle.Render(icons.Poll.String() + " Recent polls"))
	sb.WriteString("\n")
	if len(h.data.Recent) == 0 {
		sb.WriteString("  No polls yet. Press c to create the first one.")
		return sb.String()
	}
	now := h.now()
	for i, p := range h.data.Recent {
		if i == recentShown {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", p.Title,
			styles.Subtitle.UnsetMarginBottom().Render(pollview.Votes(p.TotalVotes)),
			styles.Subtitle.UnsetMarginBottom().Render(pollview.FormatAge(p.CreatedAt, now))))
	}
	return strings.TrimRight(sb.String(), "\n")
}
