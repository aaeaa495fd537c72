// Package memory provides an in-memory record store. It is the default
// backend and the test double for the storage port.
package memory

import (
	"context"
	"sync"

	"budget/internal/core"
)

// Store holds records in insertion order behind a mutex. Ids are issued
// from a monotonic counter so deleted ids are never reused.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	records []core.Record
}

func New() *Store {
	return &Store{nextID: 1}
}

// Append stores the record and returns its assigned id.
func (s *Store) Append(_ context.Context, r core.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	s.records = append(s.records, r)
	return r.ID, nil
}

// Delete removes the record with the given id, preserving the order of the
// rest. Unknown ids yield core.ErrNotFound.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// List returns a copy of all records in insertion order.
func (s *Store) List(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}
