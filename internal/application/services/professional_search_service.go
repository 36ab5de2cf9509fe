package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/carefinder/internal/domain/entities"
	"github.com/zatekoja/carefinder/internal/domain/providers"
	"github.com/zatekoja/carefinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
	"github.com/zatekoja/carefinder/pkg/utils"
)

const (
	DefaultRadiusMeters         = 12000
	DefaultMaxPlacesPerCategory = 3
	DefaultRateLimitKey         = "default"
	DefaultSearchCacheTTL       = 30 * time.Minute
	DefaultMinRating            = 4
	DefaultMaxResultCount       = 5

	searchCacheKeyPrefix = "professional-search:v1:"
)

// ErrEmptyAPIKey is returned when a search is attempted without provider credentials.
var ErrEmptyAPIKey = apperrors.NewConfigurationError("EMPTY_API_KEY")

// SearchParams describe one professional search. Zero values take the defaults.
type SearchParams struct {
	Categories           []entities.SearchCategory
	APIKey               string
	LocationLabel        string
	Coordinates          *entities.Coordinates
	RadiusMeters         int
	MaxPlacesPerCategory int
	RateLimitKey         string
}

// ProfessionalSearchOptions tune the provider request and caching.
type ProfessionalSearchOptions struct {
	CacheTTL                    time.Duration
	MinRating                   float64
	MaxResultCount              int
	DefaultRadiusMeters         int
	DefaultMaxPlacesPerCategory int
}

// DefaultProfessionalSearchOptions returns the production defaults.
func DefaultProfessionalSearchOptions() ProfessionalSearchOptions {
	return ProfessionalSearchOptions{
		CacheTTL:                    DefaultSearchCacheTTL,
		MinRating:                   DefaultMinRating,
		MaxResultCount:              DefaultMaxResultCount,
		DefaultRadiusMeters:         DefaultRadiusMeters,
		DefaultMaxPlacesPerCategory: DefaultMaxPlacesPerCategory,
	}
}

// ProfessionalSearchService finds care professionals per category through the
// places provider, behind a result cache and a rate limiter.
type ProfessionalSearchService struct {
	places    providers.PlacesProvider
	cache     providers.CacheProvider
	limiter   *RateLimiter
	analytics *SearchAnalyticsService
	metrics   *observability.Metrics
	opts      ProfessionalSearchOptions
	now       func() time.Time

	// inflight coalesces concurrent misses per cache key and rate limit key.
	inflight singleflight.Group
}

// NewProfessionalSearchService creates a new professional search service
func NewProfessionalSearchService(
	places providers.PlacesProvider,
	cache providers.CacheProvider,
	limiter *RateLimiter,
	opts ProfessionalSearchOptions,
) *ProfessionalSearchService {
	defaults := DefaultProfessionalSearchOptions()
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaults.CacheTTL
	}
	if opts.MaxResultCount <= 0 {
		opts.MaxResultCount = defaults.MaxResultCount
	}
	if opts.DefaultRadiusMeters <= 0 {
		opts.DefaultRadiusMeters = defaults.DefaultRadiusMeters
	}
	if opts.DefaultMaxPlacesPerCategory <= 0 {
		opts.DefaultMaxPlacesPerCategory = defaults.DefaultMaxPlacesPerCategory
	}
	return &ProfessionalSearchService{
		places:  places,
		cache:   cache,
		limiter: limiter,
		opts:    opts,
		now:     time.Now,
	}
}

// SetAnalytics enables search event tracking.
func (s *ProfessionalSearchService) SetAnalytics(analytics *SearchAnalyticsService) {
	s.analytics = analytics
}

// SetMetrics enables metric recording.
func (s *ProfessionalSearchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SetClock replaces the time source used for latency tracking.
func (s *ProfessionalSearchService) SetClock(now func() time.Time) {
	s.now = now
}

type searchOutcome struct {
	results  []entities.CategoryResult
	cacheHit bool
}

// SearchByCategory returns up to MaxPlacesPerCategory places for each category.
//
// A live cached result is returned as is without consulting the rate
// limiter. On a miss the limiter must admit the call; then every category is
// queried in parallel and one failing category fails the whole search.
func (s *ProfessionalSearchService) SearchByCategory(ctx context.Context, params SearchParams) ([]entities.CategoryResult, error) {
	if strings.TrimSpace(params.APIKey) == "" {
		return nil, ErrEmptyAPIKey
	}
	categories := uniqueCategories(params.Categories)
	if len(categories) == 0 {
		return []entities.CategoryResult{}, nil
	}
	params = s.withDefaults(params)
	start := s.now()

	key := searchCacheKeyPrefix + BuildCacheKey(CacheKeyParams{
		CategoryIDs:    categoryIDs(categories),
		LocationLabel:  params.LocationLabel,
		Coordinates:    params.Coordinates,
		RadiusMeters:   params.RadiusMeters,
		MaxPerCategory: params.MaxPlacesPerCategory,
	})

	if results, ok := s.lookup(ctx, key); ok {
		s.track(ctx, categories, params, start, entities.SearchOutcomeCacheHit, len(results))
		return results, nil
	}

	v, err := s.coalesce(ctx, key, categories, params)
	if err != nil {
		outcome := entities.SearchOutcomeFailed
		if apperrors.IsType(err, apperrors.ErrorTypeRateLimited) {
			outcome = entities.SearchOutcomeRateLimited
		}
		s.track(ctx, categories, params, start, outcome, 0)
		return nil, err
	}

	outcome := entities.SearchOutcomeFetched
	if v.cacheHit {
		outcome = entities.SearchOutcomeCacheHit
	}
	s.track(ctx, categories, params, start, outcome, len(v.results))
	return v.results, nil
}

// TopPicks returns one place per category, avoiding places already picked
// for an earlier category where possible. It shares SearchByCategory's cache.
func (s *ProfessionalSearchService) TopPicks(ctx context.Context, params SearchParams) ([]entities.PlaceResult, error) {
	results, err := s.SearchByCategory(ctx, params)
	if err != nil {
		return nil, err
	}
	return PickTopUniqueResultsByCategory(categoryPlacesFromResults(results)), nil
}

// coalesce joins concurrent misses for the same search and rate limit key
// into one flight. Callers with different rate limit keys never share a
// flight, so each one is admitted or denied by its own quota. A waiter whose
// context ends stops waiting; the flight itself runs on to fill the cache.
func (s *ProfessionalSearchService) coalesce(ctx context.Context, key string, categories []entities.SearchCategory, params SearchParams) (searchOutcome, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key+"|"+params.RateLimitKey, func() (interface{}, error) {
		return s.fetchAndCache(shared, key, categories, params)
	})

	select {
	case <-ctx.Done():
		return searchOutcome{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return searchOutcome{}, res.Err
		}
		return res.Val.(searchOutcome), nil
	}
}

func (s *ProfessionalSearchService) fetchAndCache(ctx context.Context, key string, categories []entities.SearchCategory, params SearchParams) (searchOutcome, error) {
	// Another flight for this key may have finished since the first lookup.
	if results, ok := s.lookup(ctx, key); ok {
		return searchOutcome{results: results, cacheHit: true}, nil
	}
	observability.RecordCacheMiss(ctx, s.metrics)

	decision, err := s.limiter.Allow(ctx, params.RateLimitKey)
	if err != nil {
		return searchOutcome{}, err
	}
	if !decision.Allowed {
		observability.RecordRateLimitDenied(ctx, s.metrics)
		observability.LoggerFromContext(ctx).Info().
			Str("rate_limit_key", params.RateLimitKey).
			Dur("retry_after", decision.RetryAfter).
			Msg("professional search rate limited")
		return searchOutcome{}, apperrors.NewRateLimitError(decision.RetryAfter)
	}

	groups, err := s.fetchCategories(ctx, categories, params)
	if err != nil {
		return searchOutcome{}, err
	}

	results := BuildTopPlacesByCategory(groups, params.MaxPlacesPerCategory)
	s.store(ctx, key, results)
	return searchOutcome{results: results}, nil
}

func (s *ProfessionalSearchService) fetchCategories(ctx context.Context, categories []entities.SearchCategory, params SearchParams) ([]entities.CategoryPlaces, error) {
	city, filterByCity := ExtractCity(params.LocationLabel)
	groups := make([]entities.CategoryPlaces, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			req := providers.PlacesTextSearchRequest{
				TextQuery:      BuildTextQuery(category.ID, params.LocationLabel),
				MinRating:      s.opts.MinRating,
				MaxResultCount: s.opts.MaxResultCount,
			}
			if params.Coordinates != nil {
				req.LocationBias = &providers.LocationCircle{
					Center:       *params.Coordinates,
					RadiusMeters: float64(params.RadiusMeters),
				}
			}

			callStart := time.Now()
			records, err := s.places.SearchText(gctx, params.APIKey, req)
			observability.RecordProviderCall(gctx, s.metrics, category.ID, time.Since(callStart), err)
			if err != nil {
				return fmt.Errorf("search category %s: %w", category.ID, err)
			}

			places := make([]entities.PlaceResult, 0, len(records))
			for _, record := range records {
				place, ok := MapPlaceRecord(record, category)
				if !ok {
					continue
				}
				if filterByCity && !AddressMatchesCity(place.Address, city) {
					continue
				}
				places = append(places, place)
			}
			groups[i] = entities.CategoryPlaces{Category: category, Places: places}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("professional search failed")
		return nil, err
	}
	return groups, nil
}

// MapPlaceRecord converts a provider record into a PlaceResult for category.
// It reports false when the record lacks an id, name or maps link, or when
// neither a phone number nor a WhatsApp link can be derived.
func MapPlaceRecord(record providers.PlaceRecord, category entities.SearchCategory) (entities.PlaceResult, bool) {
	id := strings.TrimSpace(record.ID)
	name := strings.TrimSpace(record.DisplayName)
	mapsURL := strings.TrimSpace(record.GoogleMapsURI)
	if id == "" || name == "" || mapsURL == "" {
		return entities.PlaceResult{}, false
	}

	national := strings.TrimSpace(record.NationalPhoneNumber)
	international := strings.TrimSpace(record.InternationalPhoneNumber)

	var phone *string
	if p := firstNonEmpty(national, international); p != "" {
		phone = &p
	}

	var whatsapp *string
	for _, candidate := range []string{international, national} {
		if link, ok := utils.WhatsAppURLFromPhone(candidate); ok {
			whatsapp = &link
			break
		}
	}

	if phone == nil && whatsapp == nil {
		return entities.PlaceResult{}, false
	}

	return entities.PlaceResult{
		ID:           id,
		Name:         name,
		Address:      strings.TrimSpace(record.FormattedAddress),
		Rating:       record.Rating,
		MapsURL:      mapsURL,
		ClinicPhone:  phone,
		WhatsAppURL:  whatsapp,
		CategoryID:   category.ID,
		CategoryName: category.Name,
	}, true
}

func (s *ProfessionalSearchService) lookup(ctx context.Context, key string) ([]entities.CategoryResult, bool) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("search cache read failed")
		}
		return nil, false
	}

	var results []entities.CategoryResult
	if err := json.Unmarshal(payload, &results); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("discarding unreadable search cache entry")
		if err := s.cache.Delete(ctx, key); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("search cache evict failed")
		}
		return nil, false
	}

	observability.RecordCacheHit(ctx, s.metrics)
	return results, true
}

func (s *ProfessionalSearchService) store(ctx context.Context, key string, results []entities.CategoryResult) {
	payload, err := json.Marshal(results)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to encode search results")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.opts.CacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("search cache write failed")
	}
}

func (s *ProfessionalSearchService) withDefaults(params SearchParams) SearchParams {
	if params.RadiusMeters <= 0 {
		params.RadiusMeters = s.opts.DefaultRadiusMeters
	}
	if params.MaxPlacesPerCategory <= 0 {
		params.MaxPlacesPerCategory = s.opts.DefaultMaxPlacesPerCategory
	}
	if strings.TrimSpace(params.RateLimitKey) == "" {
		params.RateLimitKey = DefaultRateLimitKey
	}
	return params
}

func (s *ProfessionalSearchService) track(ctx context.Context, categories []entities.SearchCategory, params SearchParams, start time.Time, outcome entities.SearchOutcome, resultCount int) {
	observability.RecordSearch(ctx, s.metrics, string(outcome))
	if s.analytics == nil {
		return
	}
	s.analytics.TrackSearch(ctx, &entities.SearchEvent{
		CategoryIDs:    categoryIDs(categories),
		LocationLabel:  strings.TrimSpace(params.LocationLabel),
		HasCoordinates: params.Coordinates != nil,
		Outcome:        outcome,
		ResultCount:    resultCount,
		LatencyMs:      int(s.now().Sub(start).Milliseconds()),
		RateLimitKey:   params.RateLimitKey,
	})
}

// uniqueCategories drops categories with a blank or repeated id, keeping order.
func uniqueCategories(categories []entities.SearchCategory) []entities.SearchCategory {
	seen := make(map[string]struct{}, len(categories))
	out := make([]entities.SearchCategory, 0, len(categories))
	for _, c := range categories {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func categoryIDs(categories []entities.SearchCategory) []string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
