// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/wicket/pkg/logger"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects where ratings and budgets live: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the sqlite file path or the postgres connection string.
	StoreDSN string `koanf:"store_dsn"`

	// MaxOvers is the over limit of matches created without one.
	MaxOvers int `koanf:"max_overs"`

	// MatchRatingFactor scales match deltas for matches created without one.
	MatchRatingFactor float64 `koanf:"match_rating_factor"`

	// InitialRating is the rating a new player starts from.
	InitialRating float64 `koanf:"initial_rating"`

	// RisingStarWindow, RisingStarThreshold and RisingStarLimit tune the
	// rising stars list.
	RisingStarWindow    int     `koanf:"rising_star_window"`
	RisingStarThreshold float64 `koanf:"rising_star_threshold"`
	RisingStarLimit     int     `koanf:"rising_star_limit"`

	// MaxPageSize caps GET /leaderboard?page_size.
	MaxPageSize int `koanf:"max_page_size"`

	// DefaultTeamBudget is the purse of teams registered without one.
	DefaultTeamBudget int64 `koanf:"default_team_budget"`

	// QueueSize bounds the match-completion queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many delivery ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// AutoApplyRatings rates matches in the background as they complete.
	AutoApplyRatings bool `koanf:"auto_apply_ratings"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           string(logger.FormatText),
		Addr:                ":9080",
		StoreDriver:         StoreMemory,
		StoreDSN:            "",
		MaxOvers:            20,
		MatchRatingFactor:   32,
		InitialRating:       1000,
		RisingStarWindow:    5,
		RisingStarThreshold: 10,
		RisingStarLimit:     6,
		MaxPageSize:         100,
		DefaultTeamBudget:   1_000_000,
		QueueSize:           1024,
		DedupeSize:          50_000,
		AutoApplyRatings:    true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxOvers <= 0:
		return fmt.Errorf("%w: max_overs must be positive", ErrInvalidConfig)
	case c.MatchRatingFactor <= 0:
		return fmt.Errorf("%w: match_rating_factor must be positive", ErrInvalidConfig)
	case c.InitialRating <= 0:
		return fmt.Errorf("%w: initial_rating must be positive", ErrInvalidConfig)
	case c.RisingStarWindow <= 0 || c.RisingStarLimit <= 0 || c.RisingStarThreshold <= 0:
		return fmt.Errorf("%w: rising star settings must be positive", ErrInvalidConfig)
	case c.MaxPageSize <= 0:
		return fmt.Errorf("%w: max_page_size must be positive", ErrInvalidConfig)
	case c.DefaultTeamBudget <= 0:
		return fmt.Errorf("%w: default_team_budget must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0 || c.DedupeSize <= 0:
		return fmt.Errorf("%w: queue_size and dedupe_size must be positive", ErrInvalidConfig)
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
