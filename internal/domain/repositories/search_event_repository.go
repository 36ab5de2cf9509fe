package repositories

import (
	"context"

	"github.com/zatekoja/carefinder/internal/domain/entities"
)

// SearchEventRepository persists professional search analytics.
type SearchEventRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}
