package ledger

import (
	"encoding/json"
	"fmt"
)

// Over is an ordered run of deliveries by one bowler.
type Over struct {
	Number int    `json:"number"`
	Bowler string `json:"bowler"`
	Balls  []Ball `json:"balls"`
}

// LegalBalls counts deliveries that consume an index.
func (o Over) LegalBalls() int {
	n := 0
	for _, b := range o.Balls {
		if b.Legal() {
			n++
		}
	}
	return n
}

// Complete reports whether six legal balls have been bowled.
func (o Over) Complete() bool { return o.LegalBalls() >= BallsPerOver }

// BowlerRuns sums the runs charged to the over's bowler.
func (o Over) BowlerRuns() int {
	n := 0
	for _, b := range o.Balls {
		n += b.BowlerRuns()
	}
	return n
}

// Maiden reports a complete over with nothing charged to the bowler.
func (o Over) Maiden() bool { return o.Complete() && o.BowlerRuns() == 0 }

func (o Over) clone() Over {
	o.Balls = append([]Ball(nil), o.Balls...)
	return o
}

// Kind distinguishes the first and second innings of a match.
type Kind string

// Innings kinds.
const (
	KindFirst  Kind = "first"
	KindSecond Kind = "second"
)

// Innings is one team's batting session. It only grows through Record and
// freezes on Finalize; every accessor returns copies.
type Innings struct {
	id          string
	kind        Kind
	battingTeam string
	bowlingTeam string
	maxOvers    int
	target      int

	overs      []Over
	runs       int
	wickets    int
	extras     int
	legalBalls int
	dismissed  map[string]bool
	finalized  bool
}

func newInnings(id string, kind Kind, batting, bowling string, maxOvers, target int) *Innings {
	return &Innings{
		id:          id,
		kind:        kind,
		battingTeam: batting,
		bowlingTeam: bowling,
		maxOvers:    maxOvers,
		target:      target,
		dismissed:   make(map[string]bool),
	}
}

func (i *Innings) ID() string          { return i.id }
func (i *Innings) Kind() Kind          { return i.kind }
func (i *Innings) BattingTeam() string { return i.battingTeam }
func (i *Innings) BowlingTeam() string { return i.bowlingTeam }
func (i *Innings) MaxOvers() int       { return i.maxOvers }
func (i *Innings) Runs() int           { return i.runs }
func (i *Innings) Wickets() int        { return i.wickets }
func (i *Innings) Extras() int         { return i.extras }
func (i *Innings) LegalBalls() int     { return i.legalBalls }
func (i *Innings) Finalized() bool     { return i.finalized }

// Target is the score the batting side needs to win; zero for a first innings.
func (i *Innings) Target() int { return i.target }

// Overs returns a copy of the overs bowled so far.
func (i *Innings) Overs() []Over {
	out := make([]Over, len(i.overs))
	for k, o := range i.overs {
		out[k] = o.clone()
	}
	return out
}

// Balls returns every delivery in bowling order.
func (i *Innings) Balls() []Ball {
	var out []Ball
	for _, o := range i.overs {
		out = append(out, o.Balls...)
	}
	return out
}

// OversText renders the overs bowled in cricket notation, e.g. "18.3".
func (i *Innings) OversText() string {
	return fmt.Sprintf("%d.%d", i.legalBalls/BallsPerOver, i.legalBalls%BallsPerOver)
}

// AllOut reports whether ten wickets have fallen.
func (i *Innings) AllOut() bool { return i.wickets >= AllOut }

// OversExhausted reports whether the over limit has been bowled.
func (i *Innings) OversExhausted() bool {
	return i.maxOvers > 0 && i.legalBalls >= i.maxOvers*BallsPerOver
}

// TargetReached reports whether a chasing side has reached its target.
func (i *Innings) TargetReached() bool { return i.target > 0 && i.runs >= i.target }

// Terminal reports whether no further deliveries may be recorded.
func (i *Innings) Terminal() bool {
	return i.AllOut() || i.OversExhausted() || i.TargetReached()
}

func (i *Innings) record(b Ball) error {
	if i.finalized {
		return fmt.Errorf("%w: innings %s", ErrAlreadyFinalized, i.id)
	}
	if i.Terminal() {
		return fmt.Errorf("%w: innings %s is complete at %d/%d", ErrMalformedSequence, i.id, i.runs, i.wickets)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if i.dismissed[b.Batsman] {
		return fmt.Errorf("%w: batsman %s is already out", ErrMalformedSequence, b.Batsman)
	}
	if out := b.Out(); out != "" && i.dismissed[out] {
		return fmt.Errorf("%w: batsman %s is already out", ErrMalformedSequence, out)
	}

	var cur *Over
	if n := len(i.overs); n > 0 {
		cur = &i.overs[n-1]
	}
	switch {
	case cur == nil || cur.Complete():
		want := 1
		if cur != nil {
			want = cur.Number + 1
		}
		if b.Over != want {
			return fmt.Errorf("%w: expected over %d, got %d", ErrMalformedSequence, want, b.Over)
		}
		if cur != nil && b.Bowler == cur.Bowler {
			return fmt.Errorf("%w: %s bowled over %d and cannot bowl over %d", ErrMalformedSequence, b.Bowler, cur.Number, b.Over)
		}
		i.overs = append(i.overs, Over{Number: b.Over, Bowler: b.Bowler})
		cur = &i.overs[len(i.overs)-1]
	case b.Over != cur.Number:
		return fmt.Errorf("%w: over %d is not complete, got ball for over %d", ErrMalformedSequence, cur.Number, b.Over)
	case b.Bowler != cur.Bowler:
		return fmt.Errorf("%w: over %d is bowled by %s, got %s", ErrMalformedSequence, cur.Number, cur.Bowler, b.Bowler)
	}

	if want := cur.LegalBalls() + 1; b.Index != want {
		if len(cur.Balls) == 0 {
			// drop the over we just opened
			i.overs = i.overs[:len(i.overs)-1]
		}
		return fmt.Errorf("%w: over %d expects ball %d, got %d", ErrMalformedSequence, cur.Number, want, b.Index)
	}

	cur.Balls = append(cur.Balls, b)
	i.runs += b.TotalRuns()
	i.extras += b.Extras()
	if b.Legal() {
		i.legalBalls++
	}
	if b.Wicket {
		i.wickets++
		i.dismissed[b.Out()] = true
	}
	return nil
}

func (i *Innings) clone() *Innings {
	c := *i
	c.overs = make([]Over, len(i.overs))
	for k, o := range i.overs {
		c.overs[k] = o.clone()
	}
	c.dismissed = make(map[string]bool, len(i.dismissed))
	for k, v := range i.dismissed {
		c.dismissed[k] = v
	}
	return &c
}

func (i *Innings) finalize() error {
	if i.finalized {
		return fmt.Errorf("%w: innings %s", ErrAlreadyFinalized, i.id)
	}
	i.finalized = true
	return nil
}

type inningsJSON struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	BattingTeam string `json:"batting_team"`
	BowlingTeam string `json:"bowling_team"`
	Target      int    `json:"target,omitempty"`
	Runs        int    `json:"runs"`
	Wickets     int    `json:"wickets"`
	Extras      int    `json:"extras"`
	Overs       string `json:"overs"`
	Finalized   bool   `json:"finalized"`
	OverList    []Over `json:"over_list"`
}

// MarshalJSON renders the innings summary together with its overs.
func (i *Innings) MarshalJSON() ([]byte, error) {
	return json.Marshal(inningsJSON{
		ID:          i.id,
		Kind:        i.kind,
		BattingTeam: i.battingTeam,
		BowlingTeam: i.bowlingTeam,
		Target:      i.target,
		Runs:        i.runs,
		Wickets:     i.wickets,
		Extras:      i.extras,
		Overs:       i.OversText(),
		Finalized:   i.finalized,
		OverList:    i.Overs(),
	})
}
