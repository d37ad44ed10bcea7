package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/wicket/internal/adapters/mq/queue"
	"github.com/okian/wicket/internal/adapters/mq/worker"
	"github.com/okian/wicket/internal/domain/rating"
	logging "github.com/okian/wicket/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	events chan queue.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{events: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Event { return mq.events }

type mockApplier struct {
	mu      sync.Mutex
	applied map[string]int
	fail    map[string]error
	calls   chan string
}

func newMockApplier() *mockApplier {
	return &mockApplier{
		applied: map[string]int{},
		fail:    map[string]error{},
		calls:   make(chan string, 10),
	}
}

func (m *mockApplier) ApplyCompletedMatch(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		m.calls <- matchID
	}()
	if err, ok := m.fail[matchID]; ok {
		return err
	}
	if m.applied[matchID] > 0 {
		return fmt.Errorf("%w: match %s", rating.ErrDuplicateApplication, matchID)
	}
	m.applied[matchID]++
	return nil
}

func (m *mockApplier) count(matchID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[matchID]
}

func waitCall(t *testing.T, calls <-chan string) string {
	t.Helper()
	select {
	case id := <-calls:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("applier was not called")
		return ""
	}
}

func TestRatingWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := newMockQueue()
		a := newMockApplier()
		w := worker.New(q, a, worker.WithName("test-worker"), worker.WithLogger(logging.Nop()))
		go w.Run(ctx)

		convey.Convey("When a completed match arrives twice", func() {
			q.events <- queue.Event{MatchID: "m1"}
			q.events <- queue.Event{MatchID: "m1"}
			waitCall(t, a.calls)
			waitCall(t, a.calls)

			convey.Convey("Then it is rated once and the duplicate is absorbed", func() {
				convey.So(a.count("m1"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When applying fails", func() {
			a.mu.Lock()
			a.fail["bad"] = errors.New("store down")
			a.mu.Unlock()
			q.events <- queue.Event{MatchID: "bad"}
			q.events <- queue.Event{MatchID: "m2"}
			convey.So(waitCall(t, a.calls), convey.ShouldEqual, "bad")
			convey.So(waitCall(t, a.calls), convey.ShouldEqual, "m2")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(a.count("m2"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then Run returns and a second Shutdown is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("A closed queue stops the worker", t, func() {
		q := newMockQueue()
		w := worker.New(q, newMockApplier(), worker.WithLogger(logging.Nop()))
		go w.Run(context.Background())
		close(q.events)

		select {
		case <-w.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop")
		}
	})
}
