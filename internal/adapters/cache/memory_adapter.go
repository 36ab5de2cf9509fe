package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/carefinder/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter implements the CacheProvider interface with a process-local map.
// Expired entries are ignored on read and replaced on the next write; there is
// no background eviction.
type MemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryAdapter creates a new in-memory cache adapter
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for expiry checks
func (a *MemoryAdapter) SetClock(now func() time.Time) {
	a.now = now
}

// Get retrieves a live value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()

	if !ok || !entry.expiresAt.After(a.now()) {
		return nil, providers.ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

// Set stores a copy of value until ttl elapses
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: a.now().Add(ttl),
	}
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, key)
	return nil
}
