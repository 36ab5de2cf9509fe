package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/carefinder/internal/domain/entities"
	"github.com/zatekoja/carefinder/internal/domain/providers"
)

type MockSearchEventRepository struct {
	mock.Mock
}

func (m *MockSearchEventRepository) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSearchEventRepository) GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchEvent), args.Error(1)
}

func TestSearchAnalyticsService_TrackSearchOutlivesRequest(t *testing.T) {
	repo := new(MockSearchEventRepository)
	event := &entities.SearchEvent{CategoryIDs: []string{"aba"}, Outcome: entities.SearchOutcomeFetched}
	repo.On("LogEvent", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), event).Return(nil).Once()

	service := NewSearchAnalyticsService(repo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service.TrackSearch(ctx, event)
	service.Wait()

	repo.AssertExpectations(t)
}

func TestSearchAnalyticsService_WriteFailureIsSwallowed(t *testing.T) {
	repo := new(MockSearchEventRepository)
	repo.On("LogEvent", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	service := NewSearchAnalyticsService(repo)
	service.TrackSearch(context.Background(), &entities.SearchEvent{})
	service.Wait()

	repo.AssertExpectations(t)
}

func TestSearchAnalyticsService_GetZeroResultSearches(t *testing.T) {
	repo := new(MockSearchEventRepository)
	want := []*entities.SearchEvent{{ID: "evt-1", LocationLabel: "Itabuna, BA"}}
	repo.On("GetZeroResultSearches", mock.Anything, 20).Return(want, nil)

	got, err := NewSearchAnalyticsService(repo).GetZeroResultSearches(context.Background(), 20)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSearchByCategory_TracksOutcomes(t *testing.T) {
	repo := new(MockSearchEventRepository)
	var events []*entities.SearchEvent
	repo.On("LogEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		events = append(events, args.Get(1).(*entities.SearchEvent))
	}).Return(nil)

	provider := &fakePlacesProvider{respond: recordsByQuery(map[string][]providers.PlaceRecord{
		"psicólogo": {record("p1", "Rua A, Itabuna - BA")},
	})}
	f := newSearchFixture(provider)
	analytics := NewSearchAnalyticsService(repo)
	f.service.SetAnalytics(analytics)

	params := SearchParams{
		Categories:    []entities.SearchCategory{psicologo},
		APIKey:        "key",
		LocationLabel: " Itabuna, BA ",
		Coordinates:   &entities.Coordinates{Latitude: -14.78, Longitude: -39.28},
	}
	_, err := f.service.SearchByCategory(context.Background(), params)
	require.NoError(t, err)
	analytics.Wait()

	_, err = f.service.SearchByCategory(context.Background(), params)
	require.NoError(t, err)
	analytics.Wait()

	_, err = f.service.SearchByCategory(context.Background(), SearchParams{
		Categories: []entities.SearchCategory{fono},
		APIKey:     "key",
	})
	require.Error(t, err)
	analytics.Wait()

	require.Len(t, events, 3)
	assert.Equal(t, entities.SearchOutcomeFetched, events[0].Outcome)
	assert.Equal(t, 1, events[0].ResultCount)
	assert.Equal(t, "Itabuna, BA", events[0].LocationLabel)
	assert.True(t, events[0].HasCoordinates)
	assert.Equal(t, DefaultRateLimitKey, events[0].RateLimitKey)
	assert.Equal(t, []string{"psicologo"}, events[0].CategoryIDs)

	assert.Equal(t, entities.SearchOutcomeCacheHit, events[1].Outcome)
	assert.Equal(t, entities.SearchOutcomeRateLimited, events[2].Outcome)
	assert.Zero(t, events[2].ResultCount)
	assert.False(t, events[2].HasCoordinates)
}
