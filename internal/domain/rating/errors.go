package rating

import "errors"

var (
	// ErrDuplicateApplication is returned when a cause has already been
	// applied to one of the players it targets. Nothing is applied.
	ErrDuplicateApplication = errors.New("duplicate rating application")

	// ErrInvalidApplication reports a malformed request: no cause id, a
	// non-positive factor, or a player listed twice.
	ErrInvalidApplication = errors.New("invalid rating application")
)
