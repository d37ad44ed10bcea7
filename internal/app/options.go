package service

import (
	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/leaderboard"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/okian/wicket/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the rating and budget store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueueSize sets the capacity of the match-completion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many delivery ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxOvers sets the over limit of matches created without one.
func WithMaxOvers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOvers = n
		}
	}
}

// WithMatchRatingFactor sets the factor of matches created without one.
func WithMatchRatingFactor(f float64) Option {
	return func(s *Service) {
		if f > 0 {
			s.matchFactor = f
		}
	}
}

// WithRatingEngine replaces the rating engine, e.g. for a different
// initial rating or a fixed clock.
func WithRatingEngine(e *rating.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithRisingStars sets the rising-stars window, threshold and limit.
func WithRisingStars(opts leaderboard.RisingOptions) Option {
	return func(s *Service) {
		if opts.Window > 0 {
			s.rising.Window = opts.Window
		}
		if opts.Limit > 0 {
			s.rising.Limit = opts.Limit
		}
		if opts.Threshold.IsPositive() {
			s.rising.Threshold = opts.Threshold
		}
	}
}

// WithMaxPageSize caps leaderboard page sizes.
func WithMaxPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithDefaultTeamBudget sets the purse of teams registered without one.
func WithDefaultTeamBudget(amount int64) Option {
	return func(s *Service) {
		if amount > 0 {
			s.defaultBudget = amount
		}
	}
}

// WithAutoApplyRatings makes the worker rate every match as it completes.
func WithAutoApplyRatings(enabled bool) Option {
	return func(s *Service) {
		s.autoApply = enabled
	}
}
