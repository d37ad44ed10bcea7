package ledger

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxOvers is the over limit used when none is configured.
const DefaultMaxOvers = 20

// Tournament is the optional competition a match belongs to.
type Tournament struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	RatingFactor float64 `json:"rating_factor,omitempty"`
}

// Match is two teams and at most two innings.
type Match struct {
	id           string
	teamA        string
	teamB        string
	maxOvers     int
	ratingFactor float64
	tournament   *Tournament
	innings      []*Innings
}

// Option configures a Match.
type Option func(*Match)

// WithTournament attaches tournament context.
func WithTournament(t Tournament) Option {
	return func(m *Match) {
		m.tournament = &t
	}
}

// WithRatingFactor sets the match's own rating multiplier.
func WithRatingFactor(f float64) Option {
	return func(m *Match) {
		if f > 0 {
			m.ratingFactor = f
		}
	}
}

// WithMaxOvers sets the per-innings over limit.
func WithMaxOvers(n int) Option {
	return func(m *Match) {
		if n > 0 {
			m.maxOvers = n
		}
	}
}

// NewMatch creates a match between two distinct teams.
func NewMatch(id, teamA, teamB string, opts ...Option) (*Match, error) {
	switch {
	case id == "":
		return nil, fmt.Errorf("%w: missing match id", ErrInvalidMatch)
	case teamA == "" || teamB == "":
		return nil, fmt.Errorf("%w: both teams are required", ErrInvalidMatch)
	case teamA == teamB:
		return nil, fmt.Errorf("%w: team %s cannot play itself", ErrInvalidMatch, teamA)
	}
	m := &Match{
		id:           id,
		teamA:        teamA,
		teamB:        teamB,
		maxOvers:     DefaultMaxOvers,
		ratingFactor: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Match) ID() string    { return m.id }
func (m *Match) TeamA() string { return m.teamA }
func (m *Match) TeamB() string { return m.teamB }
func (m *Match) MaxOvers() int { return m.maxOvers }

// Tournament returns the tournament context, if any.
func (m *Match) Tournament() (Tournament, bool) {
	if m.tournament == nil {
		return Tournament{}, false
	}
	return *m.tournament, true
}

// RatingFactor is the match factor scaled by the tournament's, if any.
func (m *Match) RatingFactor() float64 {
	f := m.ratingFactor
	if m.tournament != nil && m.tournament.RatingFactor > 0 {
		f *= m.tournament.RatingFactor
	}
	return f
}

// Innings returns the innings in the order they were started.
func (m *Match) Innings() []*Innings {
	out := make([]*Innings, len(m.innings))
	copy(out, m.innings)
	return out
}

// InningsByID looks an innings up by id.
func (m *Match) InningsByID(id string) (*Innings, error) {
	for _, in := range m.innings {
		if in.id == id {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInningsNotFound, id)
}

// First returns the first innings, or nil.
func (m *Match) First() *Innings {
	if len(m.innings) == 0 {
		return nil
	}
	return m.innings[0]
}

// Second returns the second innings, or nil.
func (m *Match) Second() *Innings {
	if len(m.innings) < 2 {
		return nil
	}
	return m.innings[1]
}

// Complete reports whether both innings are finalized.
func (m *Match) Complete() bool {
	return len(m.innings) == 2 && m.innings[0].finalized && m.innings[1].finalized
}

// Clone returns a deep copy that shares no state with m.
func (m *Match) Clone() *Match {
	c := *m
	if m.tournament != nil {
		t := *m.tournament
		c.tournament = &t
	}
	c.innings = make([]*Innings, len(m.innings))
	for k, in := range m.innings {
		c.innings[k] = in.clone()
	}
	return &c
}

// Opponent returns the other team.
func (m *Match) Opponent(team string) (string, error) {
	switch team {
	case m.teamA:
		return m.teamB, nil
	case m.teamB:
		return m.teamA, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTeam, team)
}

// StartInnings opens the next innings with battingTeam at the crease.
func (m *Match) StartInnings(id, battingTeam string) (*Innings, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing innings id", ErrMalformedSequence)
	}
	bowling, err := m.Opponent(battingTeam)
	if err != nil {
		return nil, err
	}
	switch len(m.innings) {
	case 0:
		in := newInnings(id, KindFirst, battingTeam, bowling, m.maxOvers, 0)
		m.innings = append(m.innings, in)
		return in, nil
	case 1:
		first := m.innings[0]
		if !first.finalized {
			return nil, fmt.Errorf("%w: first innings %s is still open", ErrInningsNotFinalized, first.id)
		}
		if first.id == id {
			return nil, fmt.Errorf("%w: innings id %s already used", ErrMalformedSequence, id)
		}
		if first.battingTeam == battingTeam {
			return nil, fmt.Errorf("%w: team %s has already batted", ErrMalformedSequence, battingTeam)
		}
		in := newInnings(id, KindSecond, battingTeam, bowling, m.maxOvers, first.runs+1)
		m.innings = append(m.innings, in)
		return in, nil
	default:
		return nil, fmt.Errorf("%w: match %s already has two innings", ErrMalformedSequence, m.id)
	}
}

// Record appends a ball to the named innings.
func (m *Match) Record(inningsID string, b Ball) (*Innings, error) {
	in, err := m.InningsByID(inningsID)
	if err != nil {
		return nil, err
	}
	if err := in.record(b); err != nil {
		return nil, err
	}
	return in, nil
}

// FinalizeInnings freezes the named innings. It may be called before the
// innings reaches its terminal condition (declaration, abandonment).
func (m *Match) FinalizeInnings(inningsID string) (*Innings, error) {
	in, err := m.InningsByID(inningsID)
	if err != nil {
		return nil, err
	}
	if err := in.finalize(); err != nil {
		return nil, err
	}
	return in, nil
}

type matchJSON struct {
	ID           string      `json:"id"`
	TeamA        string      `json:"team_a"`
	TeamB        string      `json:"team_b"`
	MaxOvers     int         `json:"max_overs"`
	RatingFactor float64     `json:"rating_factor"`
	Tournament   *Tournament `json:"tournament,omitempty"`
	Complete     bool        `json:"complete"`
	Innings      []*Innings  `json:"innings"`
}

// MarshalJSON renders the match and its innings.
func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchJSON{
		ID:           m.id,
		TeamA:        m.teamA,
		TeamB:        m.teamB,
		MaxOvers:     m.maxOvers,
		RatingFactor: m.RatingFactor(),
		Tournament:   m.tournament,
		Complete:     m.Complete(),
		Innings:      m.Innings(),
	})
}
