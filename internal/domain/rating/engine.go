package rating

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delta weights.
const (
	TeamWeight       = 0.7
	IndividualWeight = 0.3
)

// Participant is one player's input to a match application.
type Participant struct {
	PlayerID string
	// TeamResult is 1 for a win, 0.5 for a tie and 0 for a loss.
	TeamResult float64
	// Overall is the match performance rating in [0,100].
	Overall float64
	// Line is copied onto the delta.
	Line Line
}

// Award is a tournament bonus for one player.
type Award struct {
	PlayerID string  `json:"player_id"`
	Points   float64 `json:"points"`
}

// Application is the outcome of applying one cause.
type Application struct {
	Records []Record `json:"records"`
	Deltas  []Delta  `json:"deltas"`
}

// Engine computes rating applications. It holds no rating state.
type Engine struct {
	initial decimal.Decimal
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithInitialRating sets the rating of a player with no record.
func WithInitialRating(v float64) Option {
	return func(e *Engine) {
		if v > 0 {
			e.initial = decimal.NewFromFloat(v).Round(Places)
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides delta id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine builds an engine with uuid delta ids and the wall clock.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		initial: DefaultInitial,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initial returns the starting rating.
func (e *Engine) Initial() decimal.Decimal { return e.initial }

// Record returns the record for id, or a fresh one.
func (e *Engine) Record(records map[string]Record, id string) Record {
	if r, ok := records[id]; ok {
		return r
	}
	return NewRecord(id, e.initial)
}

// MatchDelta is factor × (0.7 × team + 0.3 × overall/100), rounded.
func MatchDelta(factor, teamResult, overall float64) decimal.Decimal {
	v := factor * (TeamWeight*teamResult + IndividualWeight*clampUnit(overall/100))
	return decimal.NewFromFloat(v).Round(Places)
}

// ApplyMatch applies a completed match to every participant. If any
// participant already carries the cause, nothing is applied and
// ErrDuplicateApplication is returned. The input map is not modified.
func (e *Engine) ApplyMatch(records map[string]Record, cause Cause, factor float64, participants []Participant) (Application, error) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.PlayerID
	}
	if err := e.check(records, cause, factor, ids); err != nil {
		return Application{}, err
	}

	at := e.now().UTC()
	app := Application{Records: make([]Record, 0, len(participants)), Deltas: make([]Delta, 0, len(participants))}
	for _, p := range participants {
		rec := e.Record(records, p.PlayerID)
		change := MatchDelta(factor, p.TeamResult, p.Overall)
		d := e.delta(rec, cause, change, factor, at)
		d.TeamResult = p.TeamResult
		d.Individual = clampUnit(p.Overall/100) * 100
		d.Line = p.Line
		app.Deltas = append(app.Deltas, d)
		app.Records = append(app.Records, rec.Apply(d))
	}
	return app, nil
}

// ApplyTournament awards bonus points scaled by factor. Idempotency is per
// (player, tournament) as for matches.
func (e *Engine) ApplyTournament(records map[string]Record, cause Cause, factor float64, awards []Award) (Application, error) {
	ids := make([]string, len(awards))
	for i, a := range awards {
		ids[i] = a.PlayerID
	}
	if err := e.check(records, cause, factor, ids); err != nil {
		return Application{}, err
	}

	at := e.now().UTC()
	app := Application{Records: make([]Record, 0, len(awards)), Deltas: make([]Delta, 0, len(awards))}
	for _, a := range awards {
		rec := e.Record(records, a.PlayerID)
		change := decimal.NewFromFloat(a.Points * factor).Round(Places)
		d := e.delta(rec, cause, change, factor, at)
		app.Deltas = append(app.Deltas, d)
		app.Records = append(app.Records, rec.Apply(d))
	}
	return app, nil
}

func (e *Engine) check(records map[string]Record, cause Cause, factor float64, ids []string) error {
	if cause.ID == "" || (cause.Kind != CauseMatch && cause.Kind != CauseTournament) {
		return fmt.Errorf("%w: bad cause %q", ErrInvalidApplication, cause)
	}
	if factor <= 0 {
		return fmt.Errorf("%w: factor must be positive, got %v", ErrInvalidApplication, factor)
	}
	// every application touches at least one player
	if len(ids) == 0 {
		return fmt.Errorf("%w: %s has no participants", ErrInvalidApplication, cause)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidApplication)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %s listed twice", ErrInvalidApplication, id)
		}
		seen[id] = struct{}{}
		if r, ok := records[id]; ok && r.Has(cause) {
			return fmt.Errorf("%w: %s already applied to %s", ErrDuplicateApplication, cause, id)
		}
	}
	return nil
}

func (e *Engine) delta(rec Record, cause Cause, change decimal.Decimal, factor float64, at time.Time) Delta {
	after := rec.Current.Add(change).Round(Places)
	return Delta{
		ID:        e.newID(),
		PlayerID:  rec.PlayerID,
		Cause:     cause,
		Before:    rec.Current,
		After:     after,
		Change:    after.Sub(rec.Current),
		Factor:    factor,
		AppliedAt: at,
	}
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
