package services

import "github.com/zatekoja/carefinder/internal/domain/entities"

// BuildTopPlacesByCategory removes repeated place IDs within each category
// (first occurrence wins, order kept), caps each category at maxPerCategory
// and omits categories left without places.
func BuildTopPlacesByCategory(groups []entities.CategoryPlaces, maxPerCategory int) []entities.CategoryResult {
	results := make([]entities.CategoryResult, 0, len(groups))
	for _, group := range groups {
		seen := make(map[string]struct{}, len(group.Places))
		places := make([]entities.PlaceResult, 0, min(len(group.Places), max(maxPerCategory, 0)))
		for _, place := range group.Places {
			if len(places) >= maxPerCategory {
				break
			}
			if _, dup := seen[place.ID]; dup {
				continue
			}
			seen[place.ID] = struct{}{}
			places = append(places, place)
		}
		if len(places) == 0 {
			continue
		}
		results = append(results, entities.CategoryResult{
			CategoryID:   group.Category.ID,
			CategoryName: group.Category.Name,
			Places:       places,
		})
	}
	return results
}

// PickTopUniqueResultsByCategory picks one place per category, preferring
// places no earlier category has taken. This is a greedy pass in caller
// order with no look-ahead, not an optimal assignment: earlier categories get
// first pick of shared places. When every candidate of a category is taken,
// its first candidate is used anyway so the category is not left empty.
// Categories without candidates contribute nothing.
func PickTopUniqueResultsByCategory(groups []entities.CategoryPlaces) []entities.PlaceResult {
	used := make(map[string]struct{})
	picks := make([]entities.PlaceResult, 0, len(groups))
	for _, group := range groups {
		if len(group.Places) == 0 {
			continue
		}
		pick := group.Places[0]
		for _, candidate := range group.Places {
			if _, taken := used[candidate.ID]; !taken {
				pick = candidate
				break
			}
		}
		used[pick.ID] = struct{}{}
		picks = append(picks, pick)
	}
	return picks
}

// categoryPlacesFromResults turns aggregated results back into aggregator input.
func categoryPlacesFromResults(results []entities.CategoryResult) []entities.CategoryPlaces {
	groups := make([]entities.CategoryPlaces, 0, len(results))
	for _, r := range results {
		groups = append(groups, entities.CategoryPlaces{
			Category: entities.SearchCategory{ID: r.CategoryID, Name: r.CategoryName},
			Places:   r.Places,
		})
	}
	return groups
}
