package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/carefinder/internal/api/handlers"
	"github.com/zatekoja/carefinder/internal/domain/entities"
)

type stubZeroResultLister struct {
	limit  int
	events []*entities.SearchEvent
}

func (s *stubZeroResultLister) GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	s.limit = limit
	return s.events, nil
}

func TestSearchAnalyticsHandler_GetZeroResultSearches(t *testing.T) {
	lister := &stubZeroResultLister{events: []*entities.SearchEvent{{ID: "evt-1", LocationLabel: "Itabuna, BA"}}}
	handler := handlers.NewSearchAnalyticsHandler(lister)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/searches/zero-results?limit=10", nil)
	w := httptest.NewRecorder()
	handler.GetZeroResultSearches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, lister.limit)

	var response struct {
		Searches []entities.SearchEvent `json:"searches"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "evt-1", response.Searches[0].ID)
}

func TestSearchAnalyticsHandler_LimitHandling(t *testing.T) {
	lister := &stubZeroResultLister{}
	handler := handlers.NewSearchAnalyticsHandler(lister)

	w := httptest.NewRecorder()
	handler.GetZeroResultSearches(w, httptest.NewRequest(http.MethodGet, "/api/analytics/searches/zero-results", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, lister.limit)
	assert.JSONEq(t, `{"searches":[],"count":0}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.GetZeroResultSearches(w, httptest.NewRequest(http.MethodGet, "/api/analytics/searches/zero-results?limit=9999", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, lister.limit)

	w = httptest.NewRecorder()
	handler.GetZeroResultSearches(w, httptest.NewRequest(http.MethodGet, "/api/analytics/searches/zero-results?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchAnalyticsHandler_Disabled(t *testing.T) {
	handler := handlers.NewSearchAnalyticsHandler(nil)

	w := httptest.NewRecorder()
	handler.GetZeroResultSearches(w, httptest.NewRequest(http.MethodGet, "/api/analytics/searches/zero-results", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
