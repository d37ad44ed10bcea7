package scorecard

import (
	"context"
	"errors"
	"fmt"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/outcome"
	"github.com/okian/wicket/internal/domain/performance"
)

// Scorer is the part of the scoring service a replay drives.
type Scorer interface {
	CreateMatch(ctx context.Context, spec service.MatchSpec) (*ledger.Match, error)
	StartInnings(ctx context.Context, matchID, inningsID, battingTeam string) (*ledger.Innings, error)
	RecordBall(ctx context.Context, d service.Delivery) (service.Receipt, error)
	FinalizeInnings(ctx context.Context, inningsID string) (*ledger.Innings, error)
	Match(ctx context.Context, matchID string) (*ledger.Match, error)
	ResolveMatch(ctx context.Context, matchID string) (outcome.Result, error)
	Performances(ctx context.Context, matchID string) ([]performance.Player, error)
	ApplyMatchRating(ctx context.Context, matchID string) (service.MatchRating, error)
}

// Options controls a replay.
type Options struct {
	// ApplyRatings rates the match once it is resolved.
	ApplyRatings bool
}

// Report is everything a replay produced.
type Report struct {
	Match   *ledger.Match        `json:"match"`
	Result  *outcome.Result      `json:"result,omitempty"`
	Players []performance.Player `json:"players"`
	Rating  *service.MatchRating `json:"rating,omitempty"`
}

// Replay scores a fixture ball by ball. An innings is finalized after its
// last ball. Result and ratings are only produced when both innings exist.
func Replay(ctx context.Context, s Scorer, f *Fixture, opts Options) (*Report, error) {
	m, err := s.CreateMatch(ctx, f.Match.Spec())
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	matchID := m.ID()

	for i, fi := range f.Innings {
		inningsID := fi.ID
		if inningsID == "" {
			inningsID = fmt.Sprintf("%s-%d", matchID, i+1)
		}
		if _, err := s.StartInnings(ctx, matchID, inningsID, fi.Batting); err != nil {
			return nil, fmt.Errorf("innings %d: %w", i+1, err)
		}
		for n, b := range fi.Balls {
			d := service.Delivery{MatchID: matchID, InningsID: inningsID, Ball: b}
			if _, err := s.RecordBall(ctx, d); err != nil {
				return nil, fmt.Errorf("innings %d ball %d (%d.%d): %w", i+1, n+1, b.Over, b.Index, err)
			}
		}
		if _, err := s.FinalizeInnings(ctx, inningsID); err != nil {
			return nil, fmt.Errorf("innings %d: %w", i+1, err)
		}
	}

	report := &Report{}
	if report.Match, err = s.Match(ctx, matchID); err != nil {
		return nil, err
	}
	if report.Players, err = s.Performances(ctx, matchID); err != nil {
		return nil, err
	}

	res, err := s.ResolveMatch(ctx, matchID)
	switch {
	case errors.Is(err, outcome.ErrIncompleteMatch):
		return report, nil
	case err != nil:
		return nil, err
	}
	report.Result = &res

	if opts.ApplyRatings {
		applied, err := s.ApplyMatchRating(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("apply ratings: %w", err)
		}
		report.Rating = &applied
	}
	return report, nil
}
