// Package rating keeps per-player skill ratings as an append-only history
// of deltas, each tagged with the match or tournament that caused it.
package rating

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places ratings are kept at.
const Places = 2

// DefaultInitial is the rating a player starts with.
var DefaultInitial = decimal.NewFromInt(1000)

// CauseKind says what produced a delta.
type CauseKind string

const (
	CauseMatch      CauseKind = "match"
	CauseTournament CauseKind = "tournament"
)

// Cause identifies the event a delta belongs to.
type Cause struct {
	Kind CauseKind `json:"kind"`
	ID   string    `json:"id"`
}

// MatchCause is shorthand for a match cause.
func MatchCause(id string) Cause { return Cause{Kind: CauseMatch, ID: id} }

// TournamentCause is shorthand for a tournament cause.
func TournamentCause(id string) Cause { return Cause{Kind: CauseTournament, ID: id} }

func (c Cause) String() string { return string(c.Kind) + ":" + c.ID }

// Delta is one applied rating change.
type Delta struct {
	ID         string          `json:"id"`
	PlayerID   string          `json:"player_id"`
	Cause      Cause           `json:"cause"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	Change     decimal.Decimal `json:"change"`
	TeamResult float64         `json:"team_result"`
	Individual float64         `json:"individual"`
	Factor     float64         `json:"factor"`
	AppliedAt  time.Time       `json:"applied_at"`
	// Line is zero for tournament deltas.
	Line Line `json:"line"`
}

// Line is a player's figures in the match behind a delta.
type Line struct {
	Runs         int  `json:"runs"`
	BallsFaced   int  `json:"balls_faced"`
	Out          bool `json:"out"`
	Wickets      int  `json:"wickets"`
	RunsConceded int  `json:"runs_conceded"`
	BallsBowled  int  `json:"balls_bowled"`
}

// Record is a player's rating state. Current and Peak are always
// consistent with History.
type Record struct {
	PlayerID string          `json:"player_id"`
	Current  decimal.Decimal `json:"current"`
	Peak     decimal.Decimal `json:"peak"`
	History  []Delta         `json:"history"`
}

// NewRecord starts a player at the initial rating.
func NewRecord(playerID string, initial decimal.Decimal) Record {
	initial = initial.Round(Places)
	return Record{PlayerID: playerID, Current: initial, Peak: initial, History: []Delta{}}
}

// Has reports whether the cause is already in the history.
func (r Record) Has(c Cause) bool {
	for _, d := range r.History {
		if d.Cause == c {
			return true
		}
	}
	return false
}

// Apply returns a copy of r with d appended. Peak only moves up.
func (r Record) Apply(d Delta) Record {
	out := r.clone()
	out.Current = d.After
	if d.After.GreaterThan(out.Peak) {
		out.Peak = d.After
	}
	out.History = append(out.History, d)
	return out
}

// Last returns up to n most recent deltas, oldest first.
func (r Record) Last(n int) []Delta {
	if n <= 0 {
		return []Delta{}
	}
	if n > len(r.History) {
		n = len(r.History)
	}
	return append([]Delta{}, r.History[len(r.History)-n:]...)
}

func (r Record) clone() Record {
	r.History = append(make([]Delta, 0, len(r.History)+1), r.History...)
	return r
}

// Stats are career counters derived from the history.
type Stats struct {
	Matches     int `json:"matches"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Ties        int `json:"ties"`
	Tournaments int `json:"tournaments"`
}

// Stats counts results from the history.
func (r Record) Stats() Stats {
	var s Stats
	for _, d := range r.History {
		switch d.Cause.Kind {
		case CauseTournament:
			s.Tournaments++
		case CauseMatch:
			s.Matches++
			switch {
			case d.TeamResult >= 1:
				s.Wins++
			case d.TeamResult > 0:
				s.Ties++
			default:
				s.Losses++
			}
		}
	}
	return s
}

// Career are batting and bowling figures summed over match deltas.
type Career struct {
	WinPercentage  float64 `json:"win_percentage"`
	Runs           int     `json:"runs"`
	BallsFaced     int     `json:"balls_faced"`
	Dismissals     int     `json:"dismissals"`
	BattingAverage float64 `json:"batting_average"`
	StrikeRate     float64 `json:"strike_rate"`
	Wickets        int     `json:"wickets"`
	RunsConceded   int     `json:"runs_conceded"`
	BallsBowled    int     `json:"balls_bowled"`
	BowlingAverage float64 `json:"bowling_average"`
}

// Career derives career figures from the history. The batting average of
// a player never dismissed is their run total; the bowling average is
// zero until a wicket is taken. Ratios are rounded to two places.
func (r Record) Career() Career {
	var c Career
	var matches, wins int
	for _, d := range r.History {
		if d.Cause.Kind != CauseMatch {
			continue
		}
		matches++
		if d.TeamResult >= 1 {
			wins++
		}
		c.Runs += d.Line.Runs
		c.BallsFaced += d.Line.BallsFaced
		if d.Line.Out {
			c.Dismissals++
		}
		c.Wickets += d.Line.Wickets
		c.RunsConceded += d.Line.RunsConceded
		c.BallsBowled += d.Line.BallsBowled
	}
	if matches > 0 {
		c.WinPercentage = round2(float64(wins) / float64(matches) * 100)
	}
	if c.Dismissals > 0 {
		c.BattingAverage = round2(float64(c.Runs) / float64(c.Dismissals))
	} else {
		c.BattingAverage = float64(c.Runs)
	}
	if c.BallsFaced > 0 {
		c.StrikeRate = round2(float64(c.Runs) / float64(c.BallsFaced) * 100)
	}
	if c.Wickets > 0 {
		c.BowlingAverage = round2(float64(c.RunsConceded) / float64(c.Wickets))
	}
	return c
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
