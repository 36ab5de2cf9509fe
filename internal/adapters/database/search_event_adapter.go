package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/zatekoja/carefinder/internal/domain/entities"
	"github.com/zatekoja/carefinder/internal/domain/repositories"
	"github.com/zatekoja/carefinder/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
)

const (
	searchEventsTable       = "search_events"
	defaultZeroResultsLimit = 100
)

// SearchEventAdapter persists professional search analytics in Postgres.
type SearchEventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchEventAdapter creates a new search event adapter.
func NewSearchEventAdapter(client *postgres.Client) *SearchEventAdapter {
	return &SearchEventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.SearchEventRepository = (*SearchEventAdapter)(nil)

const searchEventsSchema = `
CREATE TABLE IF NOT EXISTS search_events (
	id              UUID PRIMARY KEY,
	category_ids    TEXT NOT NULL,
	location_label  TEXT,
	has_coordinates BOOLEAN NOT NULL DEFAULT FALSE,
	outcome         TEXT NOT NULL,
	result_count    INTEGER NOT NULL DEFAULT 0,
	latency_ms      INTEGER NOT NULL DEFAULT 0,
	rate_limit_key  TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_search_events_zero_results
	ON search_events (created_at DESC) WHERE result_count = 0`

// InitSchema creates the search_events table and its index if missing.
func (a *SearchEventAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, searchEventsSchema); err != nil {
		return apperrors.NewInternalError("failed to create search_events schema", err)
	}
	return nil
}

// LogEvent inserts one search event, assigning an id and timestamp when missing.
func (a *SearchEventAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event == nil {
		return apperrors.NewInternalError("search event is nil", fmt.Errorf("search event is nil"))
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":              event.ID,
		"category_ids":    strings.Join(event.CategoryIDs, ","),
		"location_label":  sql.NullString{String: event.LocationLabel, Valid: event.LocationLabel != ""},
		"has_coordinates": event.HasCoordinates,
		"outcome":         string(event.Outcome),
		"result_count":    event.ResultCount,
		"latency_ms":      event.LatencyMs,
		"rate_limit_key":  event.RateLimitKey,
		"created_at":      event.CreatedAt,
	}

	query, args, err := a.db.Insert(searchEventsTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build search event insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// GetZeroResultSearches returns the most recent completed searches that found nothing.
func (a *SearchEventAdapter) GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = defaultZeroResultsLimit
	}

	query, args, err := a.db.From(searchEventsTable).Prepared(true).
		Select(
			"id", "category_ids", "location_label", "has_coordinates", "outcome",
			"result_count", "latency_ms", "rate_limit_key", "created_at",
		).
		Where(
			goqu.C("result_count").Eq(0),
			goqu.C("outcome").In(string(entities.SearchOutcomeFetched), string(entities.SearchOutcomeCacheHit)),
		).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build zero result query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result searches", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		var (
			e             entities.SearchEvent
			categoryIDs   string
			locationLabel sql.NullString
			outcome       string
		)
		if err := rows.Scan(
			&e.ID,
			&categoryIDs,
			&locationLabel,
			&e.HasCoordinates,
			&outcome,
			&e.ResultCount,
			&e.LatencyMs,
			&e.RateLimitKey,
			&e.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		if categoryIDs != "" {
			e.CategoryIDs = strings.Split(categoryIDs, ",")
		}
		e.LocationLabel = locationLabel.String
		e.Outcome = entities.SearchOutcome(outcome)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read search events", err)
	}

	return events, nil
}
