package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/carefinder/internal/domain/entities"
	"github.com/zatekoja/carefinder/internal/domain/repositories"
	"github.com/zatekoja/carefinder/internal/infrastructure/observability"
)

const analyticsWriteTimeout = 5 * time.Second

// SearchAnalyticsService records professional searches without blocking them.
type SearchAnalyticsService struct {
	repo repositories.SearchEventRepository
	wg   sync.WaitGroup
}

func NewSearchAnalyticsService(repo repositories.SearchEventRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo}
}

// TrackSearch stores event in the background.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	logger := observability.LoggerFromContext(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// The request context may already be cancelled by the time this runs.
		bgCtx, cancel := context.WithTimeout(context.Background(), analyticsWriteTimeout)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			logger.Warn().Err(err).Msg("failed to log search event")
		}
	}()
}

// Wait blocks until pending writes finish.
func (s *SearchAnalyticsService) Wait() {
	s.wg.Wait()
}

func (s *SearchAnalyticsService) GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	return s.repo.GetZeroResultSearches(ctx, limit)
}
