// Package achievement derives player milestones from match performances
// and rating deltas. Nothing here is stored; the same inputs always give
// the same awards.
package achievement

import (
	"fmt"

	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/performance"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/shopspring/decimal"
)

// Kind names an achievement.
type Kind string

const (
	Century         Kind = "century"
	FiveWickets     Kind = "five_wickets"
	HatTrick        Kind = "hat_trick"
	RatingMilestone Kind = "rating_milestone"
)

// Milestones are the rating levels worth an award.
var Milestones = []int64{1200, 1400, 1600, 1800, 2000, 2200}

// Achievement is one award.
type Achievement struct {
	PlayerID string `json:"player_id"`
	Kind     Kind   `json:"kind"`
	Title    string `json:"title"`
	MatchID  string `json:"match_id,omitempty"`
	Value    int64  `json:"value"`
}

// ForMatch returns batting, bowling and hat-trick awards for a finalized match.
func ForMatch(m *ledger.Match, players []performance.Player) []Achievement {
	out := []Achievement{}
	for _, p := range players {
		if p.Batting.Runs >= 100 {
			out = append(out, Achievement{
				PlayerID: p.PlayerID, Kind: Century, MatchID: m.ID(), Value: int64(p.Batting.Runs),
				Title: fmt.Sprintf("Century - %d runs", p.Batting.Runs),
			})
		}
		if p.Bowling.Wickets >= 5 {
			out = append(out, Achievement{
				PlayerID: p.PlayerID, Kind: FiveWickets, MatchID: m.ID(), Value: int64(p.Bowling.Wickets),
				Title: fmt.Sprintf("Five-wicket haul - %d wickets", p.Bowling.Wickets),
			})
		}
	}
	for _, in := range m.Innings() {
		for _, bowler := range hatTricks(in) {
			out = append(out, Achievement{
				PlayerID: bowler, Kind: HatTrick, MatchID: m.ID(), Value: 3,
				Title: "Hat-trick",
			})
		}
	}
	return out
}

// hatTricks returns bowlers who took wickets with three consecutive
// deliveries of their own in the innings. Wides and no-balls without a
// wicket do not break the run.
func hatTricks(in *ledger.Innings) []string {
	streak := map[string]int{}
	done := map[string]bool{}
	var out []string
	for _, b := range in.Balls() {
		switch {
		case b.BowlerWicket():
			streak[b.Bowler]++
		case !b.Legal():
			continue
		default:
			streak[b.Bowler] = 0
		}
		if streak[b.Bowler] >= 3 && !done[b.Bowler] {
			done[b.Bowler] = true
			out = append(out, b.Bowler)
		}
	}
	return out
}

// ForDelta returns a milestone award for each level the delta crossed upward.
func ForDelta(d rating.Delta) []Achievement {
	out := []Achievement{}
	for _, level := range Milestones {
		lv := decimal.NewFromInt(level)
		if d.Before.LessThan(lv) && d.After.GreaterThanOrEqual(lv) {
			out = append(out, Achievement{
				PlayerID: d.PlayerID, Kind: RatingMilestone, Value: level,
				Title: fmt.Sprintf("Rating Milestone: %d", level),
			})
		}
	}
	return out
}
