// Package memory holds the in-memory record store and allocator. They keep
// development and unit tests lightweight and intentionally favor clarity over
// performance.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"census/internal/census"
)

// Store is a mutex-guarded map keyed by record id.
type Store struct {
	mu      sync.RWMutex
	records map[string]census.HouseholdRecord
}

// NewStore creates an empty in-memory record store.
func NewStore() *Store {
	return &Store{records: make(map[string]census.HouseholdRecord)}
}

func (s *Store) Create(_ context.Context, rec census.HouseholdRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *Store) Get(_ context.Context, id string) (census.HouseholdRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return census.HouseholdRecord{}, census.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]census.HouseholdRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]census.HouseholdRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	// Newest first; household number breaks created-at ties so the order is
	// stable across calls.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].HouseholdNumber > out[j].HouseholdNumber
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, rec census.HouseholdRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return census.ErrNotFound
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return census.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Allocator issues household numbers from a process-local atomic counter.
// The increment-and-fetch is a single atomic operation, so concurrent callers
// can never draw the same number.
type Allocator struct {
	last atomic.Int64
}

// NewAllocator creates an allocator starting at zero; the first issued number
// is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

func (a *Allocator) Next(_ context.Context) (int64, error) {
	return a.last.Add(1), nil
}
