// Package worker applies match ratings asynchronously as matches complete.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wicket/internal/adapters/mq/queue"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/okian/wicket/pkg/logger"
	"github.com/okian/wicket/pkg/metrics"
)

// Applier rates a completed match. Applying the same match twice must fail
// with rating.ErrDuplicateApplication.
type Applier interface {
	ApplyCompletedMatch(ctx context.Context, matchID string) error
}

// Queue defines how the worker receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// RatingWorker is the single consumer of the completion queue.
type RatingWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// New creates a worker reading from q and rating through a.
func New(q Queue, a Applier, opts ...Option) *RatingWorker {
	w := &RatingWorker{
		queue:    q,
		applier:  a,
		name:     "rating-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logger.OrGlobal(w.logger, w.name)
	return w
}

// Run processes events until ctx is cancelled, Shutdown is called or the
// queue closes.
func (w *RatingWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "rating completed match failed",
					logger.String("match_id", e.MatchID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the loop and waits for the in-flight event.
func (w *RatingWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *RatingWorker) Done() <-chan struct{} { return w.done }

func (w *RatingWorker) process(ctx context.Context, e queue.Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.applier.ApplyCompletedMatch(ctx, e.MatchID)
	switch {
	case err == nil:
		w.logger.Debug(ctx, "match rated", logger.String("match_id", e.MatchID))
		return nil
	case errors.Is(err, rating.ErrDuplicateApplication):
		w.logger.Debug(ctx, "match already rated", logger.String("match_id", e.MatchID))
		return nil
	default:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_rating")
		return fmt.Errorf("apply rating for match %s: %w", e.MatchID, err)
	}
}
