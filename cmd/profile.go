// ABOUTME: Profile command showing the signed-in user's polls, votes and likes
// ABOUTME: Sections load in parallel; only a failed polls section is an error

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/pollview"
)

// Profile tabs
const (
	TabPolls = "polls"
	TabVotes = "votes"
	TabLikes = "likes"
)

var profileTab string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your polls, votes and likes",
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runProfile(ctx, cmd.OutOrStdout(), profileTab)
		})
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileTab, "tab", TabPolls, "Section to list: polls, votes or likes")
	rootCmd.AddCommand(profileCmd)
}

// runProfile loads and prints the profile of the signed-in user
func runProfile(ctx context.Context, w io.Writer, tab string) int {
	switch tab {
	case TabPolls, TabVotes, TabLikes:
	default:
		fmt.Fprintf(w, "Error: unknown tab %q (want polls, votes or likes)\n", tab)
		return 2
	}

	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	next := []string{"profile"}
	if tab != TabPolls {
		next = append(next, "--tab", tab)
	}
	if !requireLogin(w, d, commandLine(next...)) {
		return 1
	}

	user := d.session.User()
	p := feed.LoadProfile(ctx, d.client, user.ID)
	if p.Err != "" {
		fmt.Fprintf(w, "Error: %s\n", p.Err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatProfileJSON(*user, p))
	} else {
		fmt.Fprintln(w, formatProfileHuman(*user, p, tab, time.Now()))
	}
	return 0
}

// formatProfileHuman formats the profile header and the selected tab
func formatProfileHuman(u client.User, p feed.Profile, tab string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", u.Username)
	if u.Email != "" {
		fmt.Fprintf(&b, " <%s>", u.Email)
	}
	if joined := pollview.FormatAge(u.CreatedAt, now); joined != "" {
		fmt.Fprintf(&b, "\nJoined %s", joined)
	}
	fmt.Fprintf(&b, "\n\nPolls: %d   Votes: %d   Likes: %d\n\n", len(p.Polls), len(p.Votes), len(p.Likes))

	switch tab {
	case TabVotes:
		b.WriteString(formatVotesHuman(p.Votes))
	case TabLikes:
		if len(p.Likes) == 0 {
			b.WriteString("No likes yet.")
			break
		}
		fmt.Fprintf(&b, "%-12s  %s", "POLL", "LIKED")
		for _, l := range p.Likes {
			fmt.Fprintf(&b, "\n%-12s  %s", l.PollID, pollview.FormatAge(l.CreatedAt, now))
		}
	default:
		if len(p.Polls) == 0 {
			b.WriteString("You have not created any polls yet.")
			break
		}
		b.WriteString(formatPollsHuman(p.Polls, "", now))
	}
	return b.String()
}

// formatProfileJSON formats the whole profile as JSON
func formatProfileJSON(u client.User, p feed.Profile) string {
	output := map[string]interface{}{
		"user":  u,
		"polls": orEmpty(p.Polls),
		"votes": orEmpty(p.Votes),
		"likes": orEmpty(p.Likes),
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
