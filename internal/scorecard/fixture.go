// Package scorecard loads ball-by-ball match fixtures and replays them
// through the scoring service.
package scorecard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/ledger"
)

// ErrInvalidFixture marks a fixture that cannot be replayed.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is one match written down ball by ball.
type Fixture struct {
	Match   MatchFixture     `yaml:"match"`
	Innings []InningsFixture `yaml:"innings"`
}

// MatchFixture names the match and its teams.
type MatchFixture struct {
	ID           string             `yaml:"id"`
	TeamA        string             `yaml:"team_a"`
	TeamB        string             `yaml:"team_b"`
	MaxOvers     int                `yaml:"max_overs,omitempty"`
	RatingFactor float64            `yaml:"rating_factor,omitempty"`
	Tournament   *TournamentFixture `yaml:"tournament,omitempty"`
}

// TournamentFixture is the optional competition of the match.
type TournamentFixture struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name,omitempty"`
	RatingFactor float64 `yaml:"rating_factor,omitempty"`
}

// InningsFixture is one innings and its balls in bowling order.
type InningsFixture struct {
	ID      string        `yaml:"id,omitempty"`
	Batting string        `yaml:"batting"`
	Balls   []ledger.Ball `yaml:"balls"`
}

// Spec converts the match header into a service request.
func (m MatchFixture) Spec() service.MatchSpec {
	spec := service.MatchSpec{
		ID:           m.ID,
		TeamA:        m.TeamA,
		TeamB:        m.TeamB,
		MaxOvers:     m.MaxOvers,
		RatingFactor: m.RatingFactor,
	}
	if t := m.Tournament; t != nil {
		spec.Tournament = &ledger.Tournament{ID: t.ID, Name: t.Name, RatingFactor: t.RatingFactor}
	}
	return spec
}

// Decode reads a fixture. Unknown keys are rejected.
func Decode(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = fh.Close() }()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *Fixture) validate() error {
	switch {
	case f.Match.TeamA == "" || f.Match.TeamB == "":
		return fmt.Errorf("%w: match needs team_a and team_b", ErrInvalidFixture)
	case len(f.Innings) == 0:
		return fmt.Errorf("%w: no innings", ErrInvalidFixture)
	case len(f.Innings) > 2:
		return fmt.Errorf("%w: %d innings, at most 2", ErrInvalidFixture, len(f.Innings))
	}
	for i, in := range f.Innings {
		if in.Batting == "" {
			return fmt.Errorf("%w: innings %d has no batting team", ErrInvalidFixture, i+1)
		}
	}
	return nil
}
