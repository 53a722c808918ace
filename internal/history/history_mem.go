package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe, in-memory Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append implements Store.
func (s *InMemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Recent implements Store.
func (s *InMemoryStore) Recent(_ context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(len(s.records)-n, 0)
	result := make([]Record, len(s.records)-start)
	copy(result, s.records[start:])
	slices.Reverse(result)
	return result, nil
}

// PruneBefore implements Store.
func (s *InMemoryStore) PruneBefore(_ context.Context, t time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r Record) bool {
		return r.FinishedAt.Before(t)
	})
	return before - len(s.records), nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
