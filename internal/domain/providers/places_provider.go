package providers

import (
	"context"

	"github.com/zatekoja/carefinder/internal/domain/entities"
)

// PlacesProvider defines the interface for the external place-search service
type PlacesProvider interface {
	// SearchText runs one text query. apiKey is supplied per call because
	// callers own the provider credentials.
	SearchText(ctx context.Context, apiKey string, req PlacesTextSearchRequest) ([]PlaceRecord, error)
}

// PlacesTextSearchRequest is one provider query
type PlacesTextSearchRequest struct {
	TextQuery      string
	MinRating      float64
	MaxResultCount int
	LocationBias   *LocationCircle
}

// LocationCircle biases results toward a point
type LocationCircle struct {
	Center       entities.Coordinates
	RadiusMeters float64
}

// PlaceRecord is the subset of a provider record the search consumes.
// Fields may be empty when the provider omits them.
type PlaceRecord struct {
	ID                       string
	DisplayName              string
	FormattedAddress         string
	GoogleMapsURI            string
	NationalPhoneNumber      string
	InternationalPhoneNumber string
	Rating                   *float64
}
