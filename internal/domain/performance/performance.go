// Package performance folds innings ball logs into per-player match records
// and derives the 0-100 sub-ratings used by the rating engine.
package performance

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/wicket/internal/domain/ledger"
)

// Batting is a player's batting line.
type Batting struct {
	Runs      int    `json:"runs"`
	Balls     int    `json:"balls"`
	Fours     int    `json:"fours"`
	Sixes     int    `json:"sixes"`
	Position  int    `json:"position"`
	Dismissal string `json:"dismissal"`
	Out       bool   `json:"out"`
}

// StrikeRate is runs per hundred balls, zero when no ball was faced.
func (b Batting) StrikeRate() float64 {
	if b.Balls == 0 {
		return 0
	}
	return float64(b.Runs) / float64(b.Balls) * 100
}

// Bowling is a player's bowling line.
type Bowling struct {
	LegalBalls   int `json:"legal_balls"`
	Deliveries   int `json:"deliveries"`
	RunsConceded int `json:"runs_conceded"`
	Wickets      int `json:"wickets"`
	Maidens      int `json:"maidens"`
}

// Overs is legal balls divided by six.
func (b Bowling) Overs() float64 { return float64(b.LegalBalls) / ledger.BallsPerOver }

// OversText renders overs in cricket notation, e.g. "3.4".
func (b Bowling) OversText() string {
	return fmt.Sprintf("%d.%d", b.LegalBalls/ledger.BallsPerOver, b.LegalBalls%ledger.BallsPerOver)
}

// Economy is runs conceded per over. With no legal ball bowled it is the
// worst case, +Inf.
func (b Bowling) Economy() float64 {
	if b.LegalBalls == 0 {
		return math.Inf(1)
	}
	return float64(b.RunsConceded) / b.Overs()
}

// Fielding counts dismissal credits.
type Fielding struct {
	Catches   int `json:"catches"`
	Stumpings int `json:"stumpings"`
	RunOuts   int `json:"run_outs"`
}

// Credits is the number of dismissals the player took part in.
func (f Fielding) Credits() int { return f.Catches + f.Stumpings + f.RunOuts }

// Ratings are the derived sub-scores, each in [0,100].
type Ratings struct {
	Batting  float64 `json:"batting"`
	Bowling  float64 `json:"bowling"`
	Fielding float64 `json:"fielding"`
	Overall  float64 `json:"overall"`
}

// Player is one player's contribution to a match (or a single innings).
type Player struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`

	Batting  Batting  `json:"batting"`
	Bowling  Bowling  `json:"bowling"`
	Fielding Fielding `json:"fielding"`
	Ratings  Ratings  `json:"ratings"`

	batted bool
	bowled bool
}

// Batted reports whether the player came to the crease.
func (p Player) Batted() bool { return p.batted }

// Bowled reports whether the player sent down at least one delivery.
func (p Player) Bowled() bool { return p.bowled }

// FromInnings aggregates a single innings. Players appear in first-contribution
// order; the innings does not need to be finalized.
func FromInnings(in *ledger.Innings) []Player {
	agg := newAggregator()
	agg.fold(in)
	return agg.players()
}

// ForMatch aggregates every innings of the match into one record per player.
// Every started innings must be finalized. A match with no innings yields an
// empty slice.
func ForMatch(m *ledger.Match) ([]Player, error) {
	agg := newAggregator()
	for _, in := range m.Innings() {
		if !in.Finalized() {
			return nil, fmt.Errorf("%w: innings %s", ledger.ErrInningsNotFinalized, in.ID())
		}
		agg.fold(in)
	}
	out := agg.players()
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

type aggregator struct {
	byID  map[string]*Player
	order []string
}

func newAggregator() *aggregator {
	return &aggregator{byID: make(map[string]*Player)}
}

func (a *aggregator) get(id, team string) *Player {
	if p, ok := a.byID[id]; ok {
		return p
	}
	p := &Player{PlayerID: id, TeamID: team, Batting: Batting{Dismissal: "not out"}}
	a.byID[id] = p
	a.order = append(a.order, id)
	return p
}

func (a *aggregator) fold(in *ledger.Innings) {
	batting, bowling := in.BattingTeam(), in.BowlingTeam()
	position := 0
	arrive := func(id string) *Player {
		p := a.get(id, batting)
		if !p.batted {
			position++
			p.batted = true
			p.Batting.Position = position
		}
		return p
	}

	for _, over := range in.Overs() {
		bw := a.get(over.Bowler, bowling)
		bw.bowled = true
		for _, b := range over.Balls {
			bat := arrive(b.Batsman)
			bat.Batting.Runs += b.BatRuns()
			if b.Faced() {
				bat.Batting.Balls++
			}
			switch b.BatRuns() {
			case 4:
				bat.Batting.Fours++
			case 6:
				bat.Batting.Sixes++
			}

			bw.Bowling.Deliveries++
			if b.Legal() {
				bw.Bowling.LegalBalls++
			}
			bw.Bowling.RunsConceded += b.BowlerRuns()
			if b.BowlerWicket() {
				bw.Bowling.Wickets++
			}

			if !b.Wicket {
				continue
			}
			out := arrive(b.Out())
			out.Batting.Out = true
			out.Batting.Dismissal = describe(b)
			fielder := b.Fielder
			if fielder == "" && b.Dismissal == ledger.DismissalCaught {
				fielder = b.Bowler
			}
			if fielder == "" {
				continue
			}
			f := a.get(fielder, bowling)
			switch b.Dismissal {
			case ledger.DismissalCaught:
				f.Fielding.Catches++
			case ledger.DismissalStumped:
				f.Fielding.Stumpings++
			case ledger.DismissalRunOut:
				f.Fielding.RunOuts++
			}
		}
		if over.Maiden() {
			bw.Bowling.Maidens++
		}
	}
}

func (a *aggregator) players() []Player {
	out := make([]Player, 0, len(a.order))
	for _, id := range a.order {
		p := a.byID[id]
		p.Ratings = Rate(*p)
		out = append(out, *p)
	}
	return out
}

func describe(b ledger.Ball) string {
	switch b.Dismissal {
	case ledger.DismissalBowled:
		return "b " + b.Bowler
	case ledger.DismissalCaught:
		if b.Fielder == "" || b.Fielder == b.Bowler {
			return "c & b " + b.Bowler
		}
		return "c " + b.Fielder + " b " + b.Bowler
	case ledger.DismissalLBW:
		return "lbw b " + b.Bowler
	case ledger.DismissalStumped:
		return "st " + b.Fielder + " b " + b.Bowler
	case ledger.DismissalRunOut:
		if b.Fielder == "" {
			return "run out"
		}
		return "run out (" + b.Fielder + ")"
	case ledger.DismissalHitWicket:
		return "hit wicket b " + b.Bowler
	}
	return "out"
}
