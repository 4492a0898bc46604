// ABOUTME: Result math and display formatting for polls
// ABOUTME: Percentages, leading option, search filtering and optimistic vote/like updates

package pollview

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/markalston/quickpoll/internal/client"
)

// Percent returns votes as a share of total, 0 when nobody voted
func Percent(votes, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(votes) / float64(total) * 100
}

// RoundPercent is Percent rounded half away from zero to a whole number
func RoundPercent(votes, total int) int {
	return int(math.Round(Percent(votes, total)))
}

// Leader returns the option with the most votes. The first option wins ties.
func Leader(p client.Poll) (client.PollOption, bool) {
	if len(p.Options) == 0 {
		return client.PollOption{}, false
	}
	best := p.Options[0]
	for _, opt := range p.Options[1:] {
		if opt.VoteCount > best.VoteCount {
			best = opt
		}
	}
	return best, true
}

// TotalVotes sums total_votes across polls
func TotalVotes(polls []client.Poll) int {
	sum := 0
	for _, p := range polls {
		sum += p.TotalVotes
	}
	return sum
}

// Filter keeps polls whose title or description contains query, ignoring case
func Filter(polls []client.Poll, query string) []client.Poll {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return polls
	}
	out := make([]client.Poll, 0, len(polls))
	for _, p := range polls {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// TopByLikes returns up to n polls ordered by likes, most liked first
func TopByLikes(polls []client.Poll, n int) []client.Poll {
	sorted := make([]client.Poll, len(polls))
	copy(sorted, polls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LikesCount > sorted[j].LikesCount
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// ApplyVote returns a copy of p with one vote added to each chosen option
// and the total bumped by the number of options that matched
func ApplyVote(p client.Poll, optionIDs []string) client.Poll {
	chosen := make(map[string]bool, len(optionIDs))
	for _, id := range optionIDs {
		chosen[id] = true
	}

	out := p
	out.Options = make([]client.PollOption, len(p.Options))
	for i, opt := range p.Options {
		if chosen[opt.ID] {
			opt.VoteCount++
			out.TotalVotes++
		}
		out.Options[i] = opt
	}
	return out
}

// ApplyLike returns a copy of p with the like count moved for a toggle
func ApplyLike(p client.Poll, liked bool) client.Poll {
	if liked {
		p.LikesCount++
	} else if p.LikesCount > 0 {
		p.LikesCount--
	}
	return p
}

// FindOption looks up an option by id, or by its 1-based position or text
func FindOption(p client.Poll, ref string) (client.PollOption, bool) {
	for _, opt := range p.Options {
		if opt.ID == ref {
			return opt, true
		}
	}
	for i, opt := range p.Options {
		if strconv.Itoa(i+1) == ref {
			return opt, true
		}
	}
	for _, opt := range p.Options {
		if strings.EqualFold(opt.Text, ref) {
			return opt, true
		}
	}
	return client.PollOption{}, false
}

// FormatCount renders n with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// Votes renders "1 vote" or "1,234 votes"
func Votes(n int) string {
	if n == 1 {
		return "1 vote"
	}
	return FormatCount(n) + " votes"
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime reads API timestamps, with or without a zone. Zoneless values are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatAge renders a timestamp relative to now, e.g. "2 hours ago".
// Unparseable input yields "".
func FormatAge(ts string, now time.Time) string {
	t, ok := ParseTime(ts)
	if !ok {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
