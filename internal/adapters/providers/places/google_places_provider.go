package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/carefinder/internal/domain/providers"
	"github.com/zatekoja/carefinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
)

const (
	googlePlacesSearchTextURL = "https://places.googleapis.com/v1/places:searchText"
	defaultHTTPTimeout        = 10 * time.Second
	maxErrorBodyBytes         = 512

	placesFieldMask = "places.id,places.displayName,places.formattedAddress,places.googleMapsUri," +
		"places.nationalPhoneNumber,places.internationalPhoneNumber,places.rating"
)

// GooglePlacesProvider implements the PlacesProvider using the Places API (New) text search.
type GooglePlacesProvider struct {
	httpClient *http.Client
	baseURL    string
}

// NewGooglePlacesProvider creates a new Google Places provider.
func NewGooglePlacesProvider(timeout time.Duration) *GooglePlacesProvider {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return NewGooglePlacesProviderWithOptions(googlePlacesSearchTextURL, &http.Client{Timeout: timeout})
}

// NewGooglePlacesProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGooglePlacesProviderWithOptions(baseURL string, httpClient *http.Client) *GooglePlacesProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googlePlacesSearchTextURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GooglePlacesProvider{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// SearchText runs one Places text search.
func (g *GooglePlacesProvider) SearchText(ctx context.Context, apiKey string, req providers.PlacesTextSearchRequest) ([]providers.PlaceRecord, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.NewConfigurationError("places api key is required")
	}

	ctx, span := observability.StartSpan(ctx, "places.searchText")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("places.text_query", req.TextQuery),
		attribute.Bool("places.location_bias", req.LocationBias != nil),
	)

	records, err := g.doSearchText(ctx, apiKey, req)
	observability.RecordError(span, err)
	if err == nil {
		observability.SetSpanAttributes(span, attribute.Int("places.result_count", len(records)))
	}
	return records, err
}

func (g *GooglePlacesProvider) doSearchText(ctx context.Context, apiKey string, req providers.PlacesTextSearchRequest) ([]providers.PlaceRecord, error) {
	body := googleSearchTextRequest{
		TextQuery:      req.TextQuery,
		MinRating:      req.MinRating,
		MaxResultCount: req.MaxResultCount,
		LanguageCode:   "pt-BR",
		RegionCode:     "BR",
	}
	if req.LocationBias != nil {
		body.LocationBias = &googleLocationBias{
			Circle: googleCircle{
				Center: googleLatLng{
					Latitude:  req.LocationBias.Center.Latitude,
					Longitude: req.LocationBias.Center.Longitude,
				},
				Radius: req.LocationBias.RadiusMeters,
			},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode places search request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build places search request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", placesFieldMask)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewExternalError("places search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("places search returned status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(detail))),
		)
	}

	var decoded googleSearchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.NewExternalError("failed to decode places search response", err)
	}

	records := make([]providers.PlaceRecord, 0, len(decoded.Places))
	for _, p := range decoded.Places {
		records = append(records, providers.PlaceRecord{
			ID:                       p.ID,
			DisplayName:              p.DisplayName.Text,
			FormattedAddress:         p.FormattedAddress,
			GoogleMapsURI:            p.GoogleMapsURI,
			NationalPhoneNumber:      p.NationalPhoneNumber,
			InternationalPhoneNumber: p.InternationalPhoneNumber,
			Rating:                   p.Rating,
		})
	}
	return records, nil
}

type googleSearchTextRequest struct {
	TextQuery      string              `json:"textQuery"`
	MinRating      float64             `json:"minRating,omitempty"`
	MaxResultCount int                 `json:"maxResultCount,omitempty"`
	LanguageCode   string              `json:"languageCode,omitempty"`
	RegionCode     string              `json:"regionCode,omitempty"`
	LocationBias   *googleLocationBias `json:"locationBias,omitempty"`
}

type googleLocationBias struct {
	Circle googleCircle `json:"circle"`
}

type googleCircle struct {
	Center googleLatLng `json:"center"`
	Radius float64      `json:"radius"`
}

type googleLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type googleSearchTextResponse struct {
	Places []googlePlace `json:"places"`
}

type googlePlace struct {
	ID                       string          `json:"id"`
	DisplayName              googleLocalized `json:"displayName"`
	FormattedAddress         string          `json:"formattedAddress"`
	GoogleMapsURI            string          `json:"googleMapsUri"`
	NationalPhoneNumber      string          `json:"nationalPhoneNumber"`
	InternationalPhoneNumber string          `json:"internationalPhoneNumber"`
	Rating                   *float64        `json:"rating"`
}

type googleLocalized struct {
	Text string `json:"text"`
}
