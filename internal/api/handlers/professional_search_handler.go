package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zatekoja/carefinder/internal/application/services"
	"github.com/zatekoja/carefinder/internal/domain/entities"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
)

const (
	maxSearchBodyBytes  = 64 << 10
	maxSearchCategories = 20
	deviceIDHeader      = "X-Device-ID"
)

// ProfessionalSearcher is the search surface the handler needs.
type ProfessionalSearcher interface {
	SearchByCategory(ctx context.Context, params services.SearchParams) ([]entities.CategoryResult, error)
	TopPicks(ctx context.Context, params services.SearchParams) ([]entities.PlaceResult, error)
}

// ProfessionalSearchHandler handles professional search HTTP requests
type ProfessionalSearchHandler struct {
	searcher ProfessionalSearcher
	apiKey   string
}

// NewProfessionalSearchHandler creates a new professional search handler.
// apiKey is the places provider key sent with every search.
func NewProfessionalSearchHandler(searcher ProfessionalSearcher, apiKey string) *ProfessionalSearchHandler {
	return &ProfessionalSearchHandler{
		searcher: searcher,
		apiKey:   apiKey,
	}
}

type professionalSearchRequest struct {
	Categories           []entities.SearchCategory `json:"categories"`
	LocationLabel        string                    `json:"locationLabel"`
	Coordinates          *entities.Coordinates     `json:"coordinates"`
	RadiusMeters         int                       `json:"radiusMeters"`
	MaxPlacesPerCategory int                       `json:"maxPlacesPerCategory"`
	RateLimitKey         string                    `json:"rateLimitKey"`
}

// Search handles POST /api/professionals/search
func (h *ProfessionalSearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseSearchParams(w, r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	results, err := h.searcher.SearchByCategory(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// TopPicks handles POST /api/professionals/top-picks
func (h *ProfessionalSearchHandler) TopPicks(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseSearchParams(w, r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	picks, err := h.searcher.TopPicks(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"picks": picks,
	})
}

func (h *ProfessionalSearchHandler) parseSearchParams(w http.ResponseWriter, r *http.Request) (services.SearchParams, error) {
	var req professionalSearchRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		return services.SearchParams{}, apperrors.NewValidationError("invalid request body")
	}

	if len(req.Categories) > maxSearchCategories {
		return services.SearchParams{}, apperrors.NewValidationError(
			fmt.Sprintf("at most %d categories can be searched at once", maxSearchCategories))
	}
	if req.RadiusMeters < 0 || req.MaxPlacesPerCategory < 0 {
		return services.SearchParams{}, apperrors.NewValidationError("radiusMeters and maxPlacesPerCategory must not be negative")
	}
	if c := req.Coordinates; c != nil {
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return services.SearchParams{}, apperrors.NewValidationError("coordinates are out of range")
		}
	}

	rateLimitKey := strings.TrimSpace(req.RateLimitKey)
	if rateLimitKey == "" {
		rateLimitKey = strings.TrimSpace(r.Header.Get(deviceIDHeader))
	}

	return services.SearchParams{
		Categories:           req.Categories,
		APIKey:               h.apiKey,
		LocationLabel:        req.LocationLabel,
		Coordinates:          req.Coordinates,
		RadiusMeters:         req.RadiusMeters,
		MaxPlacesPerCategory: req.MaxPlacesPerCategory,
		RateLimitKey:         rateLimitKey,
	}, nil
}
