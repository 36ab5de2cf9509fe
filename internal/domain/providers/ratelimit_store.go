package providers

import (
	"context"

	"github.com/zatekoja/carefinder/pkg/ratelimit"
)

// RateLimitStore holds limiter state per rate-limit key.
type RateLimitStore interface {
	// Get returns the stored entry, or nil when the key has no state yet
	Get(ctx context.Context, key string) (*ratelimit.Entry, error)

	// Put replaces the entry for key
	Put(ctx context.Context, key string, entry ratelimit.Entry) error
}
