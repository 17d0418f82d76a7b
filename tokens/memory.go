package tokens

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store, used in tests and for connectors that
// should never persist credentials.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, host, username string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[tokenKey(host, username)]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Save(_ context.Context, host, username string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[tokenKey(host, username)] = *entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, host, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, tokenKey(host, username))
	return nil
}
