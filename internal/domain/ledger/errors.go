package ledger

import "errors"

// Sentinel kinds for ledger errors. Callers match them with errors.Is.
var (
	// ErrMalformedSequence reports a ball that breaks over/ball ordering,
	// bowler continuity or the innings' terminal condition.
	ErrMalformedSequence = errors.New("malformed sequence")
	// ErrInvalidBall reports a ball payload that violates the ball invariants.
	// It is always wrapped together with ErrMalformedSequence.
	ErrInvalidBall = errors.New("invalid ball")

	ErrAlreadyFinalized    = errors.New("innings already finalized")
	ErrInningsNotFinalized = errors.New("innings not finalized")
	ErrInningsNotFound     = errors.New("innings not found")
	ErrUnknownTeam         = errors.New("team not in match")
	ErrInvalidMatch        = errors.New("invalid match")
)
