package services

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/zatekoja/carefinder/internal/domain/entities"
)

const cacheKeyDelimiter = "|"

// CacheKeyParams are the request fields that identify a logically equivalent
// search. Zero RadiusMeters or MaxPerCategory means "not supplied".
type CacheKeyParams struct {
	CategoryIDs    []string
	LocationLabel  string
	Coordinates    *entities.Coordinates
	RadiusMeters   int
	MaxPerCategory int
}

// BuildCacheKey returns a key that does not depend on category order, label
// casing/whitespace, or GPS jitter below ~111m. Every field always contributes
// a segment, empty when absent, so the arity never changes.
func BuildCacheKey(p CacheKeyParams) string {
	ids := append([]string(nil), p.CategoryIDs...)
	sort.Strings(ids)

	lat, lng := "", ""
	if p.Coordinates != nil {
		lat = formatCoordinate(p.Coordinates.Latitude)
		lng = formatCoordinate(p.Coordinates.Longitude)
	}

	return strings.Join([]string{
		strings.Join(ids, ","),
		strings.ToLower(strings.TrimSpace(p.LocationLabel)),
		lat,
		lng,
		optionalInt(p.RadiusMeters),
		optionalInt(p.MaxPerCategory),
	}, cacheKeyDelimiter)
}

func formatCoordinate(v float64) string {
	// +0 folds negative zero so -0.0001 and 0.0001 share a key.
	rounded := math.Round(v*1000)/1000 + 0
	return strconv.FormatFloat(rounded, 'f', 3, 64)
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
