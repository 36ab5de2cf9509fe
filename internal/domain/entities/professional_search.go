package entities

// SearchCategory is a care-provider specialty the search runs for. ID is the
// stable key used for query templates, cache keys and result attribution.
type SearchCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceResult is one provider record mapped for display. Records without an
// id, name, maps link or any contact channel never become a PlaceResult.
type PlaceResult struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       *float64 `json:"rating"`
	MapsURL      string   `json:"mapsUrl"`
	ClinicPhone  *string  `json:"clinicPhone"`
	WhatsAppURL  *string  `json:"whatsappUrl"`
	CategoryID   string   `json:"categoryId"`
	CategoryName string   `json:"categoryName"`
}

// CategoryResult groups the places found for one category, deduplicated by
// place ID and capped at the requested size.
type CategoryResult struct {
	CategoryID   string        `json:"categoryId"`
	CategoryName string        `json:"categoryName"`
	Places       []PlaceResult `json:"places"`
}

// CategoryPlaces is the ordered input to result aggregation.
type CategoryPlaces struct {
	Category SearchCategory
	Places   []PlaceResult
}
