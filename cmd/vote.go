// ABOUTME: Voting commands: cast a vote, list a poll's votes, show vote statistics
// ABOUTME: Anonymous voters are identified by a persisted anonymous id

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/pollview"
)

// Messages for votes refused before reaching the server
const (
	MsgPollClosed     = "This poll is no longer accepting votes"
	MsgSingleChoice   = "This poll allows only one option"
	MsgNoOptionChosen = "Choose at least one option"
	VoteFailed        = "Failed to cast vote"
)

var votesPage int

var voteCmd = &cobra.Command{
	Use:   "vote <poll-id> <option>...",
	Short: "Vote on a poll",
	Long: `Vote for one option, or several on multiple-choice polls.

Options can be given by id, by position (1, 2, ...) or by their text.
Voting works without an account; anonymous votes use a stored anonymous id.`,
	Example: `  quickpoll vote 42 2
  quickpoll vote 42 Pizza Sushi`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runVote(ctx, cmd.OutOrStdout(), args[0], args[1:])
		})
	},
}

var votesCmd = &cobra.Command{
	Use:   "votes <poll-id>",
	Short: "List the votes cast on a poll",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runVotes(ctx, cmd.OutOrStdout(), args[0], votesPage)
		})
	},
}

var votesStatsCmd = &cobra.Command{
	Use:   "stats <poll-id>",
	Short: "Show vote statistics for a poll",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runVoteStats(ctx, cmd.OutOrStdout(), args[0])
		})
	},
}

func init() {
	votesCmd.Flags().IntVar(&votesPage, "page", 1, "Page number, starting at 1")
	votesCmd.AddCommand(votesStatsCmd)
	rootCmd.AddCommand(voteCmd, votesCmd)
}

// resolveOptions maps option references to option ids
func resolveOptions(p client.Poll, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, errors.New(MsgNoOptionChosen)
	}
	seen := make(map[string]bool, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		opt, ok := pollview.FindOption(p, ref)
		if !ok {
			return nil, fmt.Errorf("no option %q in poll %s", ref, p.ID)
		}
		if !seen[opt.ID] {
			seen[opt.ID] = true
			ids = append(ids, opt.ID)
		}
	}
	if len(ids) > 1 && !p.AllowMultiple {
		return nil, errors.New(MsgSingleChoice)
	}
	return ids, nil
}

// runVote casts a vote and prints the updated results
func runVote(ctx context.Context, w io.Writer, pollID string, refs []string) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	pollRes := d.client.GetPoll(ctx, pollID)
	if !pollRes.OK() {
		return failure(w, pollRes, feed.PollFailed)
	}
	poll := *pollRes.Data
	if !poll.IsActive || poll.IsExpired {
		fmt.Fprintf(w, "Error: %s\n", MsgPollClosed)
		return 1
	}

	ids, err := resolveOptions(poll, refs)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	anonID := ""
	if !d.session.IsAuthenticated() {
		anonID = d.anon.Get()
	}

	res := d.client.CastVote(ctx, poll.ID, ids, anonID)
	if !res.Success {
		return failure(w, res, VoteFailed)
	}

	updated := pollview.ApplyVote(poll, ids)
	if IsJSONOutput() {
		output := map[string]interface{}{
			"poll": updated,
		}
		if res.Data != nil {
			output["votes"] = *res.Data
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	fmt.Fprintf(w, "Vote recorded for %q\n\n%s\n", poll.Title, formatResults(updated))
	return 0
}

// runVotes lists one page of a poll's votes
func runVotes(ctx context.Context, w io.Writer, pollID string, page int) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if page < 1 {
		page = 1
	}

	res := d.client.PollVotes(ctx, pollID, (page-1)*d.cfg.PageSize, d.cfg.PageSize)
	if !res.Success {
		return failure(w, res, "Failed to load votes")
	}
	var votes []client.Vote
	total := 0
	if res.Data != nil {
		votes = res.Data.Items
		total = res.Data.Total
	}

	if IsJSONOutput() {
		if votes == nil {
			votes = []client.Vote{}
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"votes": votes, "page": page, "total": total}, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintln(w, formatVotesHuman(votes))
	return 0
}

// formatVotesHuman formats a vote list as aligned columns
func formatVotesHuman(votes []client.Vote) string {
	if len(votes) == 0 {
		return "No votes yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s  %-20s  %s\n", "OPTION", "VOTER", "CAST AT")
	for _, v := range votes {
		voter := v.UserID
		if voter == "" {
			voter = "anonymous"
		}
		fmt.Fprintf(&b, "%-12s  %-20s  %s\n", v.OptionID, voter, v.CreatedAt)
	}
	return strings.TrimRight(b.String(), "\n")
}

// runVoteStats prints vote statistics for a poll
func runVoteStats(ctx context.Context, w io.Writer, pollID string) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	res := d.client.PollStats(ctx, pollID)
	if !res.OK() {
		return failure(w, res, "Failed to load statistics")
	}
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(res.Data, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintln(w, formatStatsHuman(*res.Data))
	return 0
}

// formatStatsHuman formats vote statistics for human readability
func formatStatsHuman(s client.VoteStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Total votes:    %s
Unique voters:  %s
Signed in:      %s
Anonymous:      %s`,
		pollview.FormatCount(s.TotalVotes),
		pollview.FormatCount(s.UniqueVoters),
		pollview.FormatCount(s.AuthenticatedVotes),
		pollview.FormatCount(s.AnonymousVotes))

	if len(s.VotesByOption) > 0 {
		ids := make([]string, 0, len(s.VotesByOption))
		for id := range s.VotesByOption {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		b.WriteString("\n\nBy option:")
		for _, id := range ids {
			fmt.Fprintf(&b, "\n  %-12s %s", id, pollview.Votes(s.VotesByOption[id]))
		}
	}
	return b.String()
}
