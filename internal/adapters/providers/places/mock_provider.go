package places

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/zatekoja/carefinder/internal/domain/providers"
)

// MockPlacesProvider returns canned clinics for local development. Results
// are derived from the query so repeated searches are stable.
type MockPlacesProvider struct {
	// City used in generated addresses when the query names no location.
	DefaultCity string
}

// NewMockPlacesProvider creates a new mock places provider
func NewMockPlacesProvider() providers.PlacesProvider {
	return &MockPlacesProvider{DefaultCity: "São Paulo - SP"}
}

var mockClinicNames = []string{
	"Clínica Crescer",
	"Espaço Girassol",
	"Centro Integrado Aprender",
	"Instituto Passo a Passo",
	"Clínica Raízes",
}

// SearchText builds up to MaxResultCount clinics located in the queried city.
func (m *MockPlacesProvider) SearchText(ctx context.Context, apiKey string, req providers.PlacesTextSearchRequest) ([]providers.PlaceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	city := m.DefaultCity
	if _, location, ok := strings.Cut(req.TextQuery, " em "); ok && strings.TrimSpace(location) != "" {
		city = strings.TrimSpace(location)
	}

	count := req.MaxResultCount
	if count <= 0 || count > len(mockClinicNames) {
		count = len(mockClinicNames)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(req.TextQuery))
	seed := h.Sum32()

	records := make([]providers.PlaceRecord, 0, count)
	for i := 0; i < count; i++ {
		n := (seed + uint32(i)) % uint32(len(mockClinicNames))
		rating := 5.0 - float64(i)*0.2
		if rating < req.MinRating {
			break
		}
		id := fmt.Sprintf("mock-%08x-%d", seed, i)
		records = append(records, providers.PlaceRecord{
			ID:                       id,
			DisplayName:              mockClinicNames[n],
			FormattedAddress:         fmt.Sprintf("Rua das Flores, %d - Centro, %s", 100+i*10, city),
			GoogleMapsURI:            "https://maps.google.com/?cid=" + id,
			NationalPhoneNumber:      fmt.Sprintf("(11) 9%04d-%04d", seed%10000, 1000+i),
			InternationalPhoneNumber: fmt.Sprintf("+55 11 9%04d-%04d", seed%10000, 1000+i),
			Rating:                   &rating,
		})
	}
	return records, nil
}
