package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/carefinder/internal/domain/entities"
)

const (
	defaultZeroResultLimit = 50
	maxZeroResultLimit     = 500
)

// ZeroResultSearchLister lists searches that found nothing.
type ZeroResultSearchLister interface {
	GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}

// SearchAnalyticsHandler exposes search analytics
type SearchAnalyticsHandler struct {
	analytics ZeroResultSearchLister
}

// NewSearchAnalyticsHandler creates a new analytics handler. A nil lister
// means analytics is disabled.
func NewSearchAnalyticsHandler(analytics ZeroResultSearchLister) *SearchAnalyticsHandler {
	return &SearchAnalyticsHandler{analytics: analytics}
}

// GetZeroResultSearches handles GET /api/analytics/searches/zero-results
func (h *SearchAnalyticsHandler) GetZeroResultSearches(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		respondWithError(w, http.StatusServiceUnavailable, "search analytics is disabled")
		return
	}

	limit := defaultZeroResultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxZeroResultLimit)
	}

	events, err := h.analytics.GetZeroResultSearches(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if events == nil {
		events = []*entities.SearchEvent{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"searches": events,
		"count":    len(events),
	})
}
