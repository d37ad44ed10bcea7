// Package budget tracks the auction purse of each team. Money only leaves a
// purse and never goes below zero.
package budget

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBudget  = errors.New("insufficient budget")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDuplicateSettlement = errors.New("duplicate bid settlement")
	ErrInvalidTeam         = errors.New("invalid team")
)

// DefaultBudget is the purse a team gets when none is given.
const DefaultBudget int64 = 1_000_000

// Team is a team's purse state. Values are whole currency units.
type Team struct {
	ID        string `json:"team_id"`
	Budget    int64  `json:"budget"`
	MoneyLeft int64  `json:"money_left"`
}

// NewTeam creates a team with a full purse.
func NewTeam(id string, budget int64) (Team, error) {
	if id == "" {
		return Team{}, fmt.Errorf("%w: missing id", ErrInvalidTeam)
	}
	if budget <= 0 {
		return Team{}, fmt.Errorf("%w: budget must be positive, got %d", ErrInvalidAmount, budget)
	}
	return Team{ID: id, Budget: budget, MoneyLeft: budget}, nil
}

// Deduct returns the state after spending amount. On error the receiver is
// the state to keep.
func (t Team) Deduct(amount int64) (Team, error) {
	if amount <= 0 {
		return t, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if amount > t.MoneyLeft {
		return t, fmt.Errorf("%w: team %s has %d, needs %d", ErrInsufficientBudget, t.ID, t.MoneyLeft, amount)
	}
	t.MoneyLeft -= amount
	return t, nil
}

// Spent is budget minus money left.
func (t Team) Spent() int64 { return t.Budget - t.MoneyLeft }

// UsagePercent is the share of the budget spent, clamped to [0,100].
func (t Team) UsagePercent() float64 {
	if t.Budget <= 0 {
		return 0
	}
	p := float64(t.Budget-t.MoneyLeft) * 100 / float64(t.Budget)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Settlement is a won auction bid charged to a team.
type Settlement struct {
	BidID    string `json:"bid_id"`
	TeamID   string `json:"team_id"`
	PlayerID string `json:"player_id,omitempty"`
	Amount   int64  `json:"amount"`
}

// Settle charges a bid against the team. settled reports whether the bid id
// was charged before.
func Settle(t Team, s Settlement, settled func(bidID string) bool) (Team, error) {
	if s.BidID != "" && settled != nil && settled(s.BidID) {
		return t, fmt.Errorf("%w: %s", ErrDuplicateSettlement, s.BidID)
	}
	return t.Deduct(s.Amount)
}
