// Package ratelimit computes admission decisions for calls to the external
// place-search provider.
//
// Two gates are applied in order: a minimum spacing between admitted calls,
// then a fixed (non-sliding) window cap. Evaluate is pure: callers own the
// state and persist Decision.Next themselves.
package ratelimit

import "time"

// Config is fixed per deployment.
type Config struct {
	Window               time.Duration
	MaxRequestsPerWindow int
	MinInterval          time.Duration
}

// Entry is the per-key limiter state. A zero LastRequest means the key has
// never been admitted.
type Entry struct {
	WindowStart      time.Time `json:"window_start"`
	RequestsInWindow int       `json:"requests_in_window"`
	LastRequest      time.Time `json:"last_request"`
}

// Decision is the result of one evaluation.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Next       Entry
}

const minRetryAfter = time.Millisecond

// Evaluate decides whether a call at now is admitted given the previous
// entry for the caller's key. prev may be nil for a key seen for the first time.
func Evaluate(now time.Time, prev *Entry, cfg Config) Decision {
	current := Entry{WindowStart: now}
	if prev != nil {
		current = *prev
	}

	if !current.LastRequest.IsZero() {
		elapsed := now.Sub(current.LastRequest)
		if elapsed < cfg.MinInterval {
			// Rejected calls must not consume quota, so the entry is returned as is.
			return Decision{
				Allowed:    false,
				RetryAfter: cfg.MinInterval - elapsed,
				Next:       current,
			}
		}
	}

	if now.Sub(current.WindowStart) >= cfg.Window {
		current.WindowStart = now
		current.RequestsInWindow = 0
	}

	if current.RequestsInWindow >= cfg.MaxRequestsPerWindow {
		retryAfter := cfg.Window - now.Sub(current.WindowStart)
		if retryAfter < minRetryAfter {
			retryAfter = minRetryAfter
		}
		return Decision{
			Allowed:    false,
			RetryAfter: retryAfter,
			Next:       current,
		}
	}

	current.RequestsInWindow++
	current.LastRequest = now
	return Decision{Allowed: true, Next: current}
}
