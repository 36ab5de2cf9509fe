package ratelimit

import (
	"context"
	"sync"

	"github.com/zatekoja/carefinder/pkg/ratelimit"
)

// MemoryStore keeps limiter entries in process memory for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]ratelimit.Entry
}

// NewMemoryStore creates an empty in-memory limiter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]ratelimit.Entry)}
}

// Get returns the entry for key, or nil when the key has never been admitted
func (s *MemoryStore) Get(ctx context.Context, key string) (*ratelimit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Put replaces the entry for key
func (s *MemoryStore) Put(ctx context.Context, key string, entry ratelimit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}
