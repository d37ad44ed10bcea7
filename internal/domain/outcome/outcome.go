// Package outcome decides the result of a completed match.
package outcome

import (
	"errors"
	"fmt"

	"github.com/okian/wicket/internal/domain/ledger"
)

// ErrIncompleteMatch is returned when either innings is missing or open.
var ErrIncompleteMatch = errors.New("match not complete")

// MarginKind says how a win is measured.
type MarginKind string

const (
	MarginRuns    MarginKind = "runs"
	MarginWickets MarginKind = "wickets"
)

// Margin is the size of a win.
type Margin struct {
	Kind  MarginKind `json:"kind"`
	Value int        `json:"value"`
}

func (m Margin) String() string {
	unit := string(m.Kind)
	if m.Value == 1 {
		unit = unit[:len(unit)-1]
	}
	return fmt.Sprintf("%d %s", m.Value, unit)
}

// Result is a resolved match. A tie has no winner and no margin.
type Result struct {
	MatchID string  `json:"match_id"`
	Winner  string  `json:"winner,omitempty"`
	Loser   string  `json:"loser,omitempty"`
	Tie     bool    `json:"tie"`
	Margin  *Margin `json:"margin,omitempty"`
	Summary string  `json:"summary"`
}

// Team result scores used by the rating engine.
const (
	ScoreWin  = 1.0
	ScoreTie  = 0.5
	ScoreLoss = 0.0
)

// TeamScore returns 1 for the winner, 0.5 for either side of a tie and 0
// otherwise.
func (r Result) TeamScore(team string) float64 {
	switch {
	case r.Tie:
		return ScoreTie
	case team == r.Winner:
		return ScoreWin
	default:
		return ScoreLoss
	}
}

// Resolve decides the match from its two finalized innings.
func Resolve(m *ledger.Match) (Result, error) {
	first, second := m.First(), m.Second()
	if !m.Complete() || first == nil || second == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrIncompleteMatch, m.ID())
	}

	res := Result{MatchID: m.ID()}
	switch {
	case second.Runs() >= second.Target():
		res.Winner, res.Loser = second.BattingTeam(), first.BattingTeam()
		res.Margin = &Margin{Kind: MarginWickets, Value: ledger.AllOut - second.Wickets()}
	case first.Runs() > second.Runs():
		res.Winner, res.Loser = first.BattingTeam(), second.BattingTeam()
		res.Margin = &Margin{Kind: MarginRuns, Value: first.Runs() - second.Runs()}
	default:
		res.Tie = true
		res.Summary = fmt.Sprintf("match tied on %d", first.Runs())
		return res, nil
	}
	res.Summary = fmt.Sprintf("%s won by %s", res.Winner, res.Margin)
	return res, nil
}
