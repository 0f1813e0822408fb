package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// SearchAnalyticsRepository is the durable sink for search events.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	// RecordClick stores the click currently attached to the event with the given id.
	RecordClick(ctx context.Context, eventID string, click *entities.ClickEvent) error
	GetZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]entities.QueryCount, error)
}
