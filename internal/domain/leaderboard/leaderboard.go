// Package leaderboard ranks rating records. Every function is a pure
// recomputation over its input; nothing is cached between calls.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/wicket/internal/domain/rating"
	"github.com/shopspring/decimal"
)

// ErrInvalidPage is returned for a page or page size below 1.
var ErrInvalidPage = errors.New("invalid page")

// PodiumSize is the number of players on the podium.
const PodiumSize = 3

// Rising-star defaults.
const (
	DefaultRisingWindow = 5
	DefaultRisingLimit  = 6
)

// DefaultRisingThreshold is the minimum gain over the window.
var DefaultRisingThreshold = decimal.NewFromInt(10)

// Entry is one ranked player.
type Entry struct {
	Rank        int             `json:"rank"`
	PlayerID    string          `json:"player_id"`
	Current     decimal.Decimal `json:"current"`
	Peak        decimal.Decimal `json:"peak"`
	Matches     int             `json:"matches"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	Ties        int             `json:"ties"`
	Tournaments int             `json:"tournaments"`
}

// Rising is a player outside the podium with recent momentum.
type Rising struct {
	Entry
	Gain decimal.Decimal `json:"gain"`
}

// Rank orders records by current rating desc, wins desc, player id asc and
// assigns 1-based positional ranks.
func Rank(records []rating.Record) []Entry {
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		s := r.Stats()
		out = append(out, Entry{
			PlayerID:    r.PlayerID,
			Current:     r.Current,
			Peak:        r.Peak,
			Matches:     s.Matches,
			Wins:        s.Wins,
			Losses:      s.Losses,
			Ties:        s.Ties,
			Tournaments: s.Tournaments,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Current.Cmp(out[j].Current); c != 0 {
			return c > 0
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Page returns the 1-based page of ranked entries. A page past the end is
// empty, not an error.
func Page(entries []Entry, page, size int) ([]Entry, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPage, page, size)
	}
	start := (page - 1) * size
	if start >= len(entries) || start < 0 {
		return []Entry{}, nil
	}
	end := start + size
	if end > len(entries) || end < start {
		end = len(entries)
	}
	return append([]Entry{}, entries[start:end]...), nil
}

// Podium returns the top three ranked entries, or fewer.
func Podium(entries []Entry) []Entry {
	n := PodiumSize
	if n > len(entries) {
		n = len(entries)
	}
	return append([]Entry{}, entries[:n]...)
}

// RisingOptions tunes RisingStars.
type RisingOptions struct {
	Window    int
	Threshold decimal.Decimal
	Limit     int
}

// DefaultRisingOptions returns the stock rising-star settings.
func DefaultRisingOptions() RisingOptions {
	return RisingOptions{Window: DefaultRisingWindow, Threshold: DefaultRisingThreshold, Limit: DefaultRisingLimit}
}

// RisingStars lists players outside the podium whose last Window deltas sum
// above Threshold, by gain desc then player id asc, at most Limit of them.
func RisingStars(records []rating.Record, opts RisingOptions) []Rising {
	ranked := Rank(records)
	byID := make(map[string]rating.Record, len(records))
	for _, r := range records {
		byID[r.PlayerID] = r
	}

	out := []Rising{}
	for i, e := range ranked {
		if i < PodiumSize {
			continue
		}
		gain := decimal.Zero
		for _, d := range byID[e.PlayerID].Last(opts.Window) {
			gain = gain.Add(d.Change)
		}
		if gain.GreaterThan(opts.Threshold) {
			out = append(out, Rising{Entry: e, Gain: gain})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Gain.Cmp(out[j].Gain); c != 0 {
			return c > 0
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
