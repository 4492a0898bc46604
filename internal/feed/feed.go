// ABOUTME: Page loaders that fan out independent API calls and join the results
// ABOUTME: Each call keeps its own envelope so one failure never hides the others

package feed

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/pollview"
)

// Fallback messages for failed sections
const (
	PollsFailed = "Failed to load polls"
	PollFailed  = "Failed to load poll"
)

// TrendingCandidates is how many polls are scanned for the trending list
const TrendingCandidates = 100

// TrendingSize is how many polls the trending list shows
const TrendingSize = 3

// API is the read side of the client the loaders call
type API interface {
	ListPolls(ctx context.Context, skip, limit int) client.Result[client.Page[client.Poll]]
	GetPoll(ctx context.Context, id string) client.Result[client.Poll]
	PollStats(ctx context.Context, pollID string) client.Result[client.VoteStats]
	Health(ctx context.Context) client.Result[client.HealthStatus]
	UserPolls(ctx context.Context, userID string) client.Result[client.Page[client.Poll]]
	UserVotes(ctx context.Context, userID string) client.Result[client.Page[client.Vote]]
	UserLikes(ctx context.Context, userID string) client.Result[client.Page[client.Like]]
}

// Home is the landing view
type Home struct {
	Recent     []client.Poll
	Trending   []client.Poll
	Total      int
	TotalVotes int
	Healthy    bool
	Health     client.Result[client.HealthStatus]
	Err        string
}

// LoadHome fetches recent polls, trending candidates and backend health in parallel
func LoadHome(ctx context.Context, api API, pageSize int) Home {
	var (
		recent   client.Result[client.Page[client.Poll]]
		trending client.Result[client.Page[client.Poll]]
		health   client.Result[client.HealthStatus]
	)

	var g errgroup.Group
	g.Go(func() error {
		recent = api.ListPolls(ctx, 0, pageSize)
		return nil
	})
	g.Go(func() error {
		trending = api.ListPolls(ctx, 0, TrendingCandidates)
		return nil
	})
	g.Go(func() error {
		health = api.Health(ctx)
		return nil
	})
	_ = g.Wait()

	h := Home{Health: health, Healthy: health.Success}
	if recent.OK() {
		h.Recent = recent.Data.Items
		h.Total = recent.Data.Total
		if h.Total < len(h.Recent) {
			h.Total = len(h.Recent)
		}
		h.TotalVotes = pollview.TotalVotes(h.Recent)
	} else {
		h.Err = recent.Failure(PollsFailed)
	}
	if trending.OK() {
		h.Trending = pollview.TopByLikes(trending.Data.Items, TrendingSize)
	}
	return h
}

// Detail is a single poll with its vote statistics
type Detail struct {
	Poll  *client.Poll
	Stats *client.VoteStats
	Err   string
	// NotFound is set when the server answered 404 for the poll
	NotFound bool
}

// LoadDetail fetches a poll and its stats in parallel. Missing stats are not an error.
func LoadDetail(ctx context.Context, api API, id string) Detail {
	var (
		poll  client.Result[client.Poll]
		stats client.Result[client.VoteStats]
	)

	var g errgroup.Group
	g.Go(func() error {
		poll = api.GetPoll(ctx, id)
		return nil
	})
	g.Go(func() error {
		stats = api.PollStats(ctx, id)
		return nil
	})
	_ = g.Wait()

	var d Detail
	if !poll.OK() {
		d.Err = poll.Failure(PollFailed)
		d.NotFound = poll.StatusCode == 404
		return d
	}
	d.Poll = poll.Data
	if stats.OK() {
		d.Stats = stats.Data
	}
	return d
}

// Profile is everything the profile view shows for a user
type Profile struct {
	Polls []client.Poll
	Votes []client.Vote
	Likes []client.Like
	Err   string
}

// LoadProfile fetches a user's polls, votes and likes in parallel. Only a
// failed polls call is reported; votes and likes just stay empty.
func LoadProfile(ctx context.Context, api API, userID string) Profile {
	var (
		polls client.Result[client.Page[client.Poll]]
		votes client.Result[client.Page[client.Vote]]
		likes client.Result[client.Page[client.Like]]
	)

	var g errgroup.Group
	g.Go(func() error {
		polls = api.UserPolls(ctx, userID)
		return nil
	})
	g.Go(func() error {
		votes = api.UserVotes(ctx, userID)
		return nil
	})
	g.Go(func() error {
		likes = api.UserLikes(ctx, userID)
		return nil
	})
	_ = g.Wait()

	var p Profile
	if polls.Success {
		if polls.Data != nil {
			p.Polls = polls.Data.Items
		}
	} else {
		p.Err = polls.Failure(PollsFailed)
	}
	if votes.OK() {
		p.Votes = votes.Data.Items
	}
	if likes.OK() {
		p.Likes = likes.Data.Items
	}
	return p
}
