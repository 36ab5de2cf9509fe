package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/carefinder/internal/api/handlers"
	"github.com/zatekoja/carefinder/internal/application/services"
	"github.com/zatekoja/carefinder/internal/domain/entities"
)

type stubSearcher struct{}

func (stubSearcher) SearchByCategory(ctx context.Context, params services.SearchParams) ([]entities.CategoryResult, error) {
	return []entities.CategoryResult{}, nil
}

func (stubSearcher) TopPicks(ctx context.Context, params services.SearchParams) ([]entities.PlaceResult, error) {
	return []entities.PlaceResult{}, nil
}

func newTestHandler(origins []string) http.Handler {
	router := NewRouter(
		handlers.NewProfessionalSearchHandler(stubSearcher{}, "k"),
		handlers.NewSearchAnalyticsHandler(nil),
		origins,
		nil,
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler([]string{"*"}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_SearchRoutes(t *testing.T) {
	handler := newTestHandler([]string{"*"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/professionals/search", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/professionals/top-picks", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"picks":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/professionals/search", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_AnalyticsDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler([]string{"*"}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/searches/zero-results", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_RequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()

	newTestHandler([]string{"*"}).ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRouter_CORS(t *testing.T) {
	handler := newTestHandler([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/professionals/search", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Device-ID")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
