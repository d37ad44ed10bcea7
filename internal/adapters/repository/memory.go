package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/rating"
)

// MemoryStore keeps everything in maps guarded by one RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]rating.Record
	teams   map[string]budget.Team
	bids    map[string]budget.Settlement
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]rating.Record),
		teams:   make(map[string]budget.Team),
		bids:    make(map[string]budget.Settlement),
	}
}

func (s *MemoryStore) Record(_ context.Context, playerID string) (rating.Record, error) {
	defer ObserveLatency("record", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[playerID]
	if !ok {
		return rating.Record{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	return copyRecord(r), nil
}

func (s *MemoryStore) Records(context.Context) ([]rating.Record, error) {
	defer ObserveLatency("records", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rating.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, copyRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (s *MemoryStore) SaveApplication(_ context.Context, app rating.Application) error {
	defer ObserveLatency("save_application", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range app.Deltas {
		if r, ok := s.records[d.PlayerID]; ok && r.Has(d.Cause) {
			return fmt.Errorf("%w: %s already stored for %s", rating.ErrDuplicateApplication, d.Cause, d.PlayerID)
		}
	}
	for _, r := range app.Records {
		s.records[r.PlayerID] = copyRecord(r)
	}
	return nil
}

func (s *MemoryStore) CreateTeam(_ context.Context, t budget.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[t.ID]; ok {
		return fmt.Errorf("%w: team %s", ErrAlreadyExists, t.ID)
	}
	s.teams[t.ID] = t
	return nil
}

func (s *MemoryStore) Team(_ context.Context, teamID string) (budget.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[teamID]
	if !ok {
		return budget.Team{}, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	return t, nil
}

func (s *MemoryStore) SaveSettlement(_ context.Context, t budget.Team, st budget.Settlement) error {
	defer ObserveLatency("save_settlement", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[t.ID]; !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, t.ID)
	}
	if st.BidID != "" {
		if _, ok := s.bids[st.BidID]; ok {
			return fmt.Errorf("%w: %s", budget.ErrDuplicateSettlement, st.BidID)
		}
		s.bids[st.BidID] = st
	}
	s.teams[t.ID] = t
	return nil
}

func (s *MemoryStore) BidSettled(_ context.Context, bidID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bids[bidID]
	return ok, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyRecord(r rating.Record) rating.Record {
	r.History = append([]rating.Delta{}, r.History...)
	return r
}
