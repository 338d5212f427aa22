package store

import (
	"context"
	"sync"

	"github.com/openvms/gatekit/internal/audit"
)

// MemoryStore implements audit.Store in memory. Intended for tests and for
// running without a configured database.
type MemoryStore struct {
	mu      sync.Mutex
	entries []*audit.Entry

	// failWith, when set, is returned by Append instead of storing.
	failWith error

	// failNext, when set, is returned by the next Append only.
	failNext error
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements audit.Store.
func (s *MemoryStore) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if s.failWith != nil {
		return s.failWith
	}

	stored := *entry
	s.entries = append(s.entries, &stored)
	return nil
}

// Entries returns a snapshot of the stored entries.
func (s *MemoryStore) Entries() []*audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*audit.Entry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// FailWith makes subsequent appends fail with the given error. Passing nil
// restores normal behavior.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// FailNext makes only the next append fail with the given error.
func (s *MemoryStore) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Close implements audit.Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure implementations satisfy the interface.
var _ audit.Store = (*MemoryStore)(nil)
