package scanlog

import (
	"context"
	"sync"

	id "gatepass/pkg/domain"
)

// InMemoryStore keeps scan entries in memory, newest first. Append-only by
// construction: nothing in the API can reach back into the slice.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Prepend keeps reads newest-first without sorting on every list.
	s.entries = append([]Entry{entry}, s.entries...)
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries...), nil
}

func (s *InMemoryStore) ListByRegistrant(_ context.Context, registrantID id.RegistrantID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.RegistrantID != nil && *e.RegistrantID == registrantID {
			out = append(out, e)
		}
	}
	return out, nil
}
