package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/carefinder/internal/domain/entities"
	"github.com/zatekoja/carefinder/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

func TestSearchEventAdapter_LogEvent(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewSearchEventAdapter(client)

	event := &entities.SearchEvent{
		CategoryIDs:    []string{"fono", "psicologo"},
		LocationLabel:  "Itabuna, BA",
		HasCoordinates: true,
		Outcome:        entities.SearchOutcomeFetched,
		ResultCount:    2,
		LatencyMs:      340,
		RateLimitKey:   "device-1",
	}

	mock.ExpectExec(`INSERT INTO "search_events"`).
		WithArgs(
			"fono,psicologo",
			sqlmock.AnyArg(),
			true,
			sqlmock.AnyArg(),
			340,
			"Itabuna, BA",
			"fetched",
			"device-1",
			2,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.LogEvent(context.Background(), event)

	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEventAdapter_LogEvent_WrapsDatabaseError(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewSearchEventAdapter(client)

	mock.ExpectExec(`INSERT INTO "search_events"`).WillReturnError(errors.New("connection reset"))

	err := adapter.LogEvent(context.Background(), &entities.SearchEvent{Outcome: entities.SearchOutcomeFailed})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestSearchEventAdapter_LogEvent_Nil(t *testing.T) {
	client, _ := setupMockDB(t)
	adapter := NewSearchEventAdapter(client)

	assert.Error(t, adapter.LogEvent(context.Background(), nil))
}

func TestSearchEventAdapter_GetZeroResultSearches(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewSearchEventAdapter(client)
	createdAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "category_ids", "location_label", "has_coordinates", "outcome",
		"result_count", "latency_ms", "rate_limit_key", "created_at",
	}).
		AddRow("evt-1", "musicoterapeuta", "Ilhéus, BA", false, "fetched", 0, 512, "device-9", createdAt).
		AddRow("evt-2", "aba", nil, true, "cache_hit", 0, 3, "default", createdAt.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .* FROM "search_events" WHERE`).
		WithArgs(0, "fetched", "cache_hit", 20).
		WillReturnRows(rows)

	events, err := adapter.GetZeroResultSearches(context.Background(), 20)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, []string{"musicoterapeuta"}, events[0].CategoryIDs)
	assert.Equal(t, "Ilhéus, BA", events[0].LocationLabel)
	assert.Equal(t, entities.SearchOutcomeFetched, events[0].Outcome)
	assert.Equal(t, "", events[1].LocationLabel)
	assert.True(t, events[1].HasCoordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEventAdapter_InitSchema(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewSearchEventAdapter(client)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS search_events`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, adapter.InitSchema(context.Background()))

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS search_events`).WillReturnError(errors.New("permission denied"))
	err := adapter.InitSchema(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))

	assert.NoError(t, mock.ExpectationsWereMet())
}
