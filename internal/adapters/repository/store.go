// Package repository defines the durable state of the engine: rating
// records with their delta history, team purses and settled bids.
package repository

import (
	"context"
	"time"

	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/okian/wicket/pkg/metrics"
)

// Store provides read/write access to ratings and budgets.
type Store interface {
	// Record returns a player's rating record with its full history.
	// Returns ErrNotFound if the player was never rated.
	Record(ctx context.Context, playerID string) (rating.Record, error)

	// Records returns every rating record ordered by player id.
	Records(ctx context.Context) ([]rating.Record, error)

	// SaveApplication persists the records and deltas of one application
	// atomically. If any (player, cause) pair is already stored nothing is
	// written and rating.ErrDuplicateApplication is returned.
	SaveApplication(ctx context.Context, app rating.Application) error

	// CreateTeam stores a new purse. Returns ErrAlreadyExists on a known id.
	CreateTeam(ctx context.Context, t budget.Team) error

	// Team returns a purse. Returns ErrNotFound if unknown.
	Team(ctx context.Context, teamID string) (budget.Team, error)

	// SaveSettlement stores the purse after a deduction together with the
	// settlement. A bid id seen before fails with budget.ErrDuplicateSettlement.
	// An empty bid id records only the purse.
	SaveSettlement(ctx context.Context, t budget.Team, s budget.Settlement) error

	// BidSettled reports whether a bid id was already charged.
	BidSettled(ctx context.Context, bidID string) (bool, error)

	Close() error
}

// ObserveLatency records the time since start for a store operation.
func ObserveLatency(operation string, start time.Time) {
	metrics.RecordStoreLatency(operation, float64(time.Since(start).Microseconds())/1000)
}
