package service

import "errors"

// Sentinel errors for lookups and registrations.
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchExists    = errors.New("match already exists")
	ErrInningsExists  = errors.New("innings id already in use")
	ErrPlayerNotFound = errors.New("player not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrTeamExists     = errors.New("team already registered")
)
