package resettoken

import (
	"context"
	"sync"
	"time"

	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

type memoryEntry struct {
	registrantID id.RegistrantID
	expiresAt    time.Time
}

// InMemoryStore is the single-process implementation used in tests and local
// runs. Expired entries are dropped lazily on Consume.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryEntry
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]memoryEntry),
		now:    time.Now,
	}
}

func (s *InMemoryStore) Put(_ context.Context, token string, registrantID id.RegistrantID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryEntry{
		registrantID: registrantID,
		expiresAt:    s.now().Add(ttl),
	}
	return nil
}

func (s *InMemoryStore) Consume(_ context.Context, token string) (id.RegistrantID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return id.RegistrantID{}, sentinel.ErrExpired
	}
	delete(s.tokens, token)
	if s.now().After(entry.expiresAt) {
		return id.RegistrantID{}, sentinel.ErrExpired
	}
	return entry.registrantID, nil
}
