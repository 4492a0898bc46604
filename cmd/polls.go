// ABOUTME: Poll commands: list, show, create, update, delete, like, activate
// ABOUTME: Read commands work anonymously; writes require a signed-in user

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/feed"
	"github.com/markalston/quickpoll/internal/forms"
	"github.com/markalston/quickpoll/internal/pollview"
	"github.com/markalston/quickpoll/internal/share"
)

var (
	listPage   int
	listSearch string

	createTitle       string
	createDescription string
	createOptions     []string
	createMultiple    bool

	updateTitle       string
	updateDescription string

	deleteYes bool
	unlike    bool
)

// barWidth is the width of result bars in human output
const barWidth = 20

var pollsCmd = &cobra.Command{
	Use:     "polls",
	Aliases: []string{"poll"},
	Short:   "Browse and manage polls",
}

var pollsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List polls, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runPollsList(ctx, cmd.OutOrStdout(), listPage, listSearch)
		})
	},
}

var pollsShowCmd = &cobra.Command{
	Use:   "show <poll-id>",
	Short: "Show a poll with its results",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runPollsShow(ctx, cmd.OutOrStdout(), args[0])
		})
	},
}

var pollsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a poll",
	Example: `  quickpoll polls create --title "Lunch?" --option Pizza --option Sushi
  quickpoll polls create --title "Languages" --option Go --option Rust --option Zig --multiple`,
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			draft := forms.PollDraft{
				Title:         createTitle,
				Description:   createDescription,
				Options:       createOptions,
				AllowMultiple: createMultiple,
			}
			return runPollsCreate(ctx, cmd.OutOrStdout(), draft)
		})
	},
}

var pollsUpdateCmd = &cobra.Command{
	Use:   "update <poll-id>",
	Short: "Change a poll's title or description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runPollsUpdate(ctx, cmd.OutOrStdout(), args[0], updateTitle, updateDescription)
		})
	},
}

var pollsDeleteCmd = &cobra.Command{
	Use:   "delete <poll-id>",
	Short: "Delete a poll you created",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !deleteYes && !confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete poll %s?", args[0])) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return
		}
		exitWith(func(ctx context.Context) int {
			return runPollsDelete(ctx, cmd.OutOrStdout(), args[0])
		})
	},
}

var pollsLikeCmd = &cobra.Command{
	Use:   "like <poll-id>",
	Short: "Like a poll, or unlike it with --unlike",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runPollsLike(ctx, cmd.OutOrStdout(), args[0], !unlike)
		})
	},
}

var pollsActivateCmd = &cobra.Command{
	Use:   "activate <poll-id>",
	Short: "Reopen a poll for voting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runPollsSetActive(ctx, cmd.OutOrStdout(), args[0], true)
		})
	},
}

var pollsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <poll-id>",
	Short: "Close a poll to new votes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runPollsSetActive(ctx, cmd.OutOrStdout(), args[0], false)
		})
	},
}

func init() {
	pollsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	pollsListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only show polls whose title or description matches")

	pollsCreateCmd.Flags().StringVarP(&createTitle, "title", "t", "", "Poll question")
	pollsCreateCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Optional description")
	pollsCreateCmd.Flags().StringArrayVarP(&createOptions, "option", "o", nil, "An option (repeat for each, at least 2)")
	pollsCreateCmd.Flags().BoolVarP(&createMultiple, "multiple", "m", false, "Allow voters to pick more than one option")

	pollsUpdateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title")
	pollsUpdateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description")

	pollsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
	pollsLikeCmd.Flags().BoolVar(&unlike, "unlike", false, "Remove your like")

	pollsCmd.AddCommand(pollsListCmd, pollsShowCmd, pollsCreateCmd, pollsUpdateCmd,
		pollsDeleteCmd, pollsLikeCmd, pollsActivateCmd, pollsDeactivateCmd)
	rootCmd.AddCommand(pollsCmd)
}

// confirm asks a yes/no question on a terminal; without one it answers no
func confirm(w io.Writer, title string) bool {
	if !isTerminal(os.Stdin) {
		fmt.Fprintln(w, "Refusing to continue without a terminal; pass --yes")
		return false
	}
	var ok bool
	err := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok).Run()
	if err != nil && !errors.Is(err, huh.ErrUserAborted) {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return ok
}

// runPollsList lists one page of polls
func runPollsList(ctx context.Context, w io.Writer, page int, search string) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if page < 1 {
		page = 1
	}

	res := d.client.ListPolls(ctx, (page-1)*d.cfg.PageSize, d.cfg.PageSize)
	if !res.Success {
		return failure(w, res, feed.PollsFailed)
	}
	var p client.Page[client.Poll]
	if res.Data != nil {
		p = *res.Data
	}
	p.Items = pollview.Filter(p.Items, search)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPollsJSON(p, page))
	} else {
		fmt.Fprintln(w, formatPollsHuman(p.Items, search, time.Now()))
	}
	return 0
}

// pollStatus is the one-word state shown next to a poll
func pollStatus(p client.Poll) string {
	switch {
	case p.IsExpired:
		return "expired"
	case !p.IsActive:
		return "closed"
	default:
		return "active"
	}
}

// formatPollsHuman formats a poll list as aligned columns
func formatPollsHuman(polls []client.Poll, search string, now time.Time) string {
	if len(polls) == 0 {
		if search != "" {
			return fmt.Sprintf("No polls match %q.", search)
		}
		return "No polls yet. Create one with: quickpoll polls create"
	}

	idWidth := len("ID")
	for _, p := range polls {
		if len(p.ID) > idWidth {
			idWidth = len(p.ID)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-8s  %7s  %5s  %-14s  %s\n", idWidth, "ID", "STATUS", "VOTES", "LIKES", "CREATED", "TITLE")
	for _, p := range polls {
		fmt.Fprintf(&b, "%-*s  %-8s  %7s  %5s  %-14s  %s\n",
			idWidth, p.ID,
			pollStatus(p),
			pollview.FormatCount(p.TotalVotes),
			pollview.FormatCount(p.LikesCount),
			pollview.FormatAge(p.CreatedAt, now),
			p.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatPollsJSON formats a poll page as JSON
func formatPollsJSON(p client.Page[client.Poll], page int) string {
	polls := p.Items
	if polls == nil {
		polls = []client.Poll{}
	}
	output := map[string]interface{}{
		"polls":    polls,
		"page":     page,
		"per_page": p.PerPage,
		"total":    p.Total,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}

// runPollsShow prints one poll with results and statistics
func runPollsShow(ctx context.Context, w io.Writer, id string) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	detail := feed.LoadDetail(ctx, d.client, id)
	if detail.Err != "" {
		fmt.Fprintf(w, "Error: %s\n", detail.Err)
		if detail.NotFound {
			return 1
		}
		return 2
	}

	link := share.URL(d.cfg.ShareBaseURL, detail.Poll.ID)
	if IsJSONOutput() {
		fmt.Fprintln(w, formatPollJSON(detail, link))
	} else {
		fmt.Fprintln(w, formatPollHuman(*detail.Poll, detail.Stats, link, time.Now()))
	}
	return 0
}

// resultBar draws a fixed-width bar for a percentage
func resultBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatResults renders one line per option with its share of the votes
func formatResults(p client.Poll) string {
	var b strings.Builder
	leader, hasLeader := pollview.Leader(p)
	for i, opt := range p.Options {
		marker := " "
		if hasLeader && p.TotalVotes > 0 && opt.ID == leader.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d. %-24s %s %3d%%  %s\n",
			marker, i+1, opt.Text,
			resultBar(pollview.Percent(opt.VoteCount, p.TotalVotes), barWidth),
			pollview.RoundPercent(opt.VoteCount, p.TotalVotes),
			pollview.Votes(opt.VoteCount))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatPollHuman formats a poll for human readability
func formatPollHuman(p client.Poll, stats *client.VoteStats, link string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	b.WriteString("\n")

	mode := "single choice"
	if p.AllowMultiple {
		mode = "multiple choice"
	}
	fmt.Fprintf(&b, "ID:       %s\n", p.ID)
	fmt.Fprintf(&b, "Status:   %s (%s)\n", pollStatus(p), mode)
	if age := pollview.FormatAge(p.CreatedAt, now); age != "" {
		fmt.Fprintf(&b, "Created:  %s\n", age)
	}
	fmt.Fprintf(&b, "Votes:    %s\n", pollview.FormatCount(p.TotalVotes))
	fmt.Fprintf(&b, "Likes:    %s\n", pollview.FormatCount(p.LikesCount))
	if stats != nil {
		fmt.Fprintf(&b, "Voters:   %s unique (%s signed in, %s anonymous)\n",
			pollview.FormatCount(stats.UniqueVoters),
			pollview.FormatCount(stats.AuthenticatedVotes),
			pollview.FormatCount(stats.AnonymousVotes))
	}
	fmt.Fprintf(&b, "Share:    %s\n\n", link)
	b.WriteString(formatResults(p))
	return b.String()
}

// formatPollJSON formats a poll detail as JSON
func formatPollJSON(detail feed.Detail, link string) string {
	output := map[string]interface{}{
		"poll":      detail.Poll,
		"share_url": link,
	}
	if detail.Stats != nil {
		output["stats"] = detail.Stats
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}

// runPollsCreate validates and creates a poll
func runPollsCreate(ctx context.Context, w io.Writer, draft forms.PollDraft) int {
	req, err := draft.Build()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if !requireLogin(w, d, createCommandLine(draft)) {
		return 1
	}

	res := d.client.CreatePoll(ctx, req)
	if !res.OK() {
		return failure(w, res, "Failed to create poll")
	}

	link := share.URL(d.cfg.ShareBaseURL, res.Data.ID)
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"poll": res.Data, "share_url": link}, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintf(w, "Created poll %s\nShare:   %s\n", res.Data.ID, link)
	return 0
}

// createCommandLine rebuilds the create invocation for a login redirect
func createCommandLine(draft forms.PollDraft) string {
	words := []string{"polls", "create", "--title", draft.Title}
	if draft.Description != "" {
		words = append(words, "--description", draft.Description)
	}
	for _, opt := range draft.Options {
		words = append(words, "--option", opt)
	}
	if draft.AllowMultiple {
		words = append(words, "--multiple")
	}
	return commandLine(words...)
}

// runPollsUpdate changes a poll's title or description
func runPollsUpdate(ctx context.Context, w io.Writer, id, title, description string) int {
	req := client.UpdatePollRequest{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
	if req.Title == "" && req.Description == "" {
		fmt.Fprintln(w, "Error: nothing to update; pass --title or --description")
		return 2
	}

	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	next := []string{"polls", "update", id}
	if title != "" {
		next = append(next, "--title", title)
	}
	if description != "" {
		next = append(next, "--description", description)
	}
	if !requireLogin(w, d, commandLine(next...)) {
		return 1
	}

	res := d.client.UpdatePoll(ctx, id, req)
	if !res.OK() {
		return failure(w, res, "Failed to update poll")
	}
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(res.Data, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintf(w, "Updated poll %s\n", res.Data.ID)
	return 0
}

// runPollsDelete deletes a poll
func runPollsDelete(ctx context.Context, w io.Writer, id string) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if !requireLogin(w, d, commandLine("polls", "delete", id)) {
		return 1
	}

	res := d.client.DeletePoll(ctx, id)
	if !res.Success {
		return failure(w, res, "Failed to delete poll")
	}
	fmt.Fprintf(w, "Deleted poll %s\n", id)
	return 0
}

// runPollsLike likes or unlikes a poll
func runPollsLike(ctx context.Context, w io.Writer, id string, like bool) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	next := []string{"polls", "like", id}
	if !like {
		next = append(next, "--unlike")
	}
	if !requireLogin(w, d, commandLine(next...)) {
		return 1
	}

	var res client.Result[client.LikeStatus]
	if like {
		res = d.client.LikePoll(ctx, id)
	} else {
		res = d.client.UnlikePoll(ctx, id)
	}
	if !res.Success {
		return failure(w, res, "Failed to update like")
	}

	status := client.LikeStatus{PollID: id, Liked: like, LikesCount: -1}
	if res.Data != nil {
		status = *res.Data
	}
	if IsJSONOutput() {
		output := map[string]interface{}{"poll_id": id, "liked": status.Liked}
		if status.LikesCount >= 0 {
			output["likes_count"] = status.LikesCount
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	verb := "Liked"
	if !status.Liked {
		verb = "Unliked"
	}
	if status.LikesCount < 0 {
		fmt.Fprintf(w, "%s poll %s\n", verb, id)
		return 0
	}
	fmt.Fprintf(w, "%s poll %s (%s likes)\n", verb, id, pollview.FormatCount(status.LikesCount))
	return 0
}

// runPollsSetActive opens or closes a poll for voting
func runPollsSetActive(ctx context.Context, w io.Writer, id string, active bool) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	verb, sub := "Activated", "activate"
	if !active {
		verb, sub = "Deactivated", "deactivate"
	}
	if !requireLogin(w, d, commandLine("polls", sub, id)) {
		return 1
	}

	var res client.Result[json.RawMessage]
	if active {
		res = d.client.ActivatePoll(ctx, id)
	} else {
		res = d.client.DeactivatePoll(ctx, id)
	}
	if !res.Success {
		return failure(w, res, "Failed to update poll")
	}
	fmt.Fprintf(w, "%s poll %s\n", verb, id)
	return 0
}
