// ABOUTME: Home command: backend status, totals, trending and recent polls
// ABOUTME: Mirrors the landing view of the interactive interface

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/pollview"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show trending and recent polls",
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runHome(ctx, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(homeCmd)
}

// runHome loads the landing view
func runHome(ctx context.Context, w io.Writer) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	h := feed.LoadHome(ctx, d.client, d.cfg.PageSize)
	if IsJSONOutput() {
		fmt.Fprintln(w, formatHomeJSON(h))
	} else {
		fmt.Fprintln(w, formatHomeHuman(h, time.Now()))
	}
	if h.Err != "" {
		return 2
	}
	return 0
}

// formatHomeHuman formats the landing view for human readability
func formatHomeHuman(h feed.Home, now time.Time) string {
	var b strings.Builder
	backend := "online"
	if !h.Healthy {
		backend = "offline"
	}
	fmt.Fprintf(&b, "Backend:  %s\n", backend)
	if h.Err != "" {
		fmt.Fprintf(&b, "Error:    %s", h.Err)
		return b.String()
	}
	fmt.Fprintf(&b, "Polls:    %s\n", pollview.FormatCount(h.Total))
	fmt.Fprintf(&b, "Votes:    %s\n", pollview.FormatCount(h.TotalVotes))

	if len(h.Trending) > 0 {
		b.WriteString("\nTrending\n")
		for i, p := range h.Trending {
			fmt.Fprintf(&b, "  %d. %s (%s likes, %s)\n", i+1, p.Title,
				pollview.FormatCount(p.LikesCount), pollview.Votes(p.TotalVotes))
		}
	}

	b.WriteString("\nRecent\n")
	b.WriteString(formatPollsHuman(h.Recent, "", now))
	return b.String()
}

// formatHomeJSON formats the landing view as JSON
func formatHomeJSON(h feed.Home) string {
	output := map[string]interface{}{
		"healthy":     h.Healthy,
		"total_polls": h.Total,
		"total_votes": h.TotalVotes,
		"trending":    orEmpty(h.Trending),
		"recent":      orEmpty(h.Recent),
	}
	if h.Err != "" {
		output["error"] = h.Err
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
