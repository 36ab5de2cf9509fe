package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/carefinder/internal/domain/providers"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
	"github.com/zatekoja/carefinder/pkg/ratelimit"
)

// RateLimiter applies ratelimit.Evaluate to state kept in a RateLimitStore.
type RateLimiter struct {
	store providers.RateLimitStore
	cfg   ratelimit.Config
	now   func() time.Time

	// locks serialize load-evaluate-store per key within this process. A store
	// shared between processes (Redis) is still read-then-write across instances.
	locks keyedMutex
}

// NewRateLimiter creates a limiter over store with a fixed config.
func NewRateLimiter(store providers.RateLimitStore, cfg ratelimit.Config) *RateLimiter {
	return &RateLimiter{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// SetClock replaces the time source.
func (l *RateLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// Allow evaluates one call for key. The new state is stored only when the
// call is admitted, so rejected attempts never consume quota.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	unlock := l.locks.lock(key)
	defer unlock()

	prev, err := l.store.Get(ctx, key)
	if err != nil {
		return ratelimit.Decision{}, apperrors.NewInternalError("failed to load rate limit state", err)
	}

	decision := ratelimit.Evaluate(l.now(), prev, l.cfg)
	if !decision.Allowed {
		return decision, nil
	}

	if err := l.store.Put(ctx, key, decision.Next); err != nil {
		return ratelimit.Decision{}, apperrors.NewInternalError("failed to store rate limit state", err)
	}
	return decision, nil
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
