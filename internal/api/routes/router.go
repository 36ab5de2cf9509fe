package routes

import (
	"net/http"

	"github.com/zatekoja/carefinder/internal/api/handlers"
	"github.com/zatekoja/carefinder/internal/api/middleware"
	"github.com/zatekoja/carefinder/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler    *handlers.ProfessionalSearchHandler
	analyticsHandler *handlers.SearchAnalyticsHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.ProfessionalSearchHandler,
	analyticsHandler *handlers.SearchAnalyticsHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		searchHandler:    searchHandler,
		analyticsHandler: analyticsHandler,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Professional search endpoints
	r.mux.HandleFunc("POST /api/professionals/search", r.searchHandler.Search)
	r.mux.HandleFunc("POST /api/professionals/top-picks", r.searchHandler.TopPicks)

	// Analytics endpoints
	if r.analyticsHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/searches/zero-results", r.analyticsHandler.GetZeroResultSearches)
	}

	// Observability sits directly on the mux so it sees the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
