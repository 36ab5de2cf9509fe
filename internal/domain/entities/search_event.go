package entities

import (
	"time"
)

// SearchOutcome describes how a professional search ended.
type SearchOutcome string

const (
	SearchOutcomeCacheHit    SearchOutcome = "cache_hit"
	SearchOutcomeFetched     SearchOutcome = "fetched"
	SearchOutcomeRateLimited SearchOutcome = "rate_limited"
	SearchOutcomeFailed      SearchOutcome = "failed"
)

// SearchEvent represents a single professional search for analytics.
type SearchEvent struct {
	ID             string        `json:"id" db:"id"`
	CategoryIDs    []string      `json:"category_ids" db:"category_ids"`
	LocationLabel  string        `json:"location_label,omitempty" db:"location_label"`
	HasCoordinates bool          `json:"has_coordinates" db:"has_coordinates"`
	Outcome        SearchOutcome `json:"outcome" db:"outcome"`
	ResultCount    int           `json:"result_count" db:"result_count"`
	LatencyMs      int           `json:"latency_ms" db:"latency_ms"`
	RateLimitKey   string        `json:"rate_limit_key" db:"rate_limit_key"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}
