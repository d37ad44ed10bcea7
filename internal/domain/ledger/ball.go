// Package ledger holds the append-only event log of a cricket match:
// balls within overs within innings within a match.
package ledger

import "fmt"

// Cricket constants shared by the ledger and its consumers.
const (
	BallsPerOver = 6
	AllOut       = 10
)

// Outcome is the decided result of a single delivery.
type Outcome string

// Delivery outcomes.
const (
	OutcomeRuns   Outcome = "runs"
	OutcomeWicket Outcome = "wicket"
	OutcomeWide   Outcome = "wide"
	OutcomeNoBall Outcome = "no_ball"
	OutcomeBye    Outcome = "bye"
	OutcomeLegBye Outcome = "leg_bye"
)

// Dismissal is the way a batsman got out.
type Dismissal string

// Dismissal kinds.
const (
	DismissalBowled    Dismissal = "bowled"
	DismissalCaught    Dismissal = "caught"
	DismissalLBW       Dismissal = "lbw"
	DismissalStumped   Dismissal = "stumped"
	DismissalRunOut    Dismissal = "run_out"
	DismissalHitWicket Dismissal = "hit_wicket"
)

// Ball is one delivery. Runs means runs off the bat for runs, wicket and
// no-ball outcomes, the extra runs for byes and leg-byes, and the runs
// beyond the one-run penalty for a wide.
type Ball struct {
	Over      int       `json:"over" yaml:"over"`
	Index     int       `json:"index" yaml:"index"`
	Bowler    string    `json:"bowler" yaml:"bowler"`
	Batsman   string    `json:"batsman" yaml:"batsman"`
	Outcome   Outcome   `json:"outcome" yaml:"outcome"`
	Runs      int       `json:"runs" yaml:"runs"`
	Wicket    bool      `json:"wicket" yaml:"wicket"`
	Dismissal Dismissal `json:"dismissal,omitempty" yaml:"dismissal,omitempty"`
	Fielder   string    `json:"fielder,omitempty" yaml:"fielder,omitempty"`
	// PlayerOut is the dismissed batsman when it is not the striker
	// (a run-out at the non-striker's end).
	PlayerOut string `json:"player_out,omitempty" yaml:"player_out,omitempty"`
}

// Legal reports whether the delivery counts toward the six balls of an over.
func (b Ball) Legal() bool {
	return b.Outcome != OutcomeWide && b.Outcome != OutcomeNoBall
}

// BatRuns returns the runs credited to the striker.
func (b Ball) BatRuns() int {
	switch b.Outcome {
	case OutcomeRuns, OutcomeWicket, OutcomeNoBall:
		return b.Runs
	default:
		return 0
	}
}

// Extras returns the runs added to the innings that are not off the bat.
func (b Ball) Extras() int {
	switch b.Outcome {
	case OutcomeWide:
		return 1 + b.Runs
	case OutcomeNoBall:
		return 1
	case OutcomeBye, OutcomeLegBye:
		return b.Runs
	default:
		return 0
	}
}

// TotalRuns returns every run the delivery added to the innings.
func (b Ball) TotalRuns() int { return b.BatRuns() + b.Extras() }

// BowlerRuns returns the runs charged to the bowler: bat runs, wides and the
// no-ball penalty. Byes and leg-byes are not.
func (b Ball) BowlerRuns() int {
	switch b.Outcome {
	case OutcomeWide, OutcomeNoBall:
		return b.BatRuns() + b.Extras()
	case OutcomeBye, OutcomeLegBye:
		return 0
	default:
		return b.BatRuns()
	}
}

// Faced reports whether the delivery counts as a ball faced by the striker.
func (b Ball) Faced() bool { return b.Outcome != OutcomeWide }

// BowlerWicket reports whether the wicket is credited to the bowler.
func (b Ball) BowlerWicket() bool { return b.Wicket && b.Dismissal != DismissalRunOut }

// Out returns the dismissed batsman, or "" if no wicket fell.
func (b Ball) Out() string {
	if !b.Wicket {
		return ""
	}
	if b.PlayerOut != "" {
		return b.PlayerOut
	}
	return b.Batsman
}

// Validate checks the ball payload on its own, without sequence context.
func (b Ball) Validate() error {
	switch {
	case b.Bowler == "":
		return invalidBall("missing bowler")
	case b.Batsman == "":
		return invalidBall("missing batsman")
	case b.Over < 1:
		return invalidBall("over must be >= 1, got %d", b.Over)
	case b.Index < 1 || b.Index > BallsPerOver:
		return invalidBall("ball index must be in 1..%d, got %d", BallsPerOver, b.Index)
	}

	switch b.Outcome {
	case OutcomeRuns, OutcomeNoBall:
		if !batRuns(b.Runs) {
			return invalidBall("%s cannot score %d off the bat", b.Outcome, b.Runs)
		}
	case OutcomeWicket:
		if !b.Wicket {
			return invalidBall("wicket outcome without wicket flag")
		}
		if !batRuns(b.Runs) {
			return invalidBall("wicket ball cannot score %d off the bat", b.Runs)
		}
	case OutcomeWide:
		if b.Runs < 0 {
			return invalidBall("wide runs must be >= 0, got %d", b.Runs)
		}
	case OutcomeBye, OutcomeLegBye:
		if b.Runs < 1 {
			return invalidBall("%s must carry at least one run", b.Outcome)
		}
	default:
		return invalidBall("unknown outcome %q", b.Outcome)
	}

	if !b.Wicket {
		if b.Dismissal != "" || b.Fielder != "" || b.PlayerOut != "" {
			return invalidBall("dismissal details on a ball without a wicket")
		}
		return nil
	}

	switch b.Dismissal {
	case "":
		return invalidBall("wicket without dismissal kind")
	case DismissalBowled, DismissalCaught, DismissalLBW, DismissalStumped:
		if !b.Legal() {
			return invalidBall("%s is impossible on a %s", b.Dismissal, b.Outcome)
		}
	case DismissalRunOut, DismissalHitWicket:
	default:
		return invalidBall("unknown dismissal %q", b.Dismissal)
	}

	if b.Fielder != "" && b.Dismissal != DismissalCaught && b.Dismissal != DismissalStumped && b.Dismissal != DismissalRunOut {
		return invalidBall("%s does not involve a fielder", b.Dismissal)
	}
	if b.PlayerOut != "" && b.PlayerOut != b.Batsman && b.Dismissal != DismissalRunOut {
		return invalidBall("only a run-out can dismiss the non-striker")
	}
	return nil
}

func batRuns(n int) bool {
	switch n {
	case 0, 1, 2, 3, 4, 6:
		return true
	}
	return false
}

func invalidBall(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrMalformedSequence, ErrInvalidBall, fmt.Sprintf(format, args...))
}
