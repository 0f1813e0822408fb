package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
)

const searchAnalyticsTable = "search_analytics"

// SearchAnalyticsAdapter persists search events to PostgreSQL
type SearchAnalyticsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchAnalyticsAdapter creates a new search analytics adapter
func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// LogEvent inserts one search event. Missing ids and timestamps are filled in.
func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	entityTypes := make([]string, len(event.EntityTypes))
	for i, et := range event.EntityTypes {
		entityTypes[i] = string(et)
	}

	record := goqu.Record{
		"id":                event.ID,
		"query":             event.Query,
		"normalized_query":  event.NormalizedQuery,
		"detected_intent":   string(event.DetectedIntent),
		"intent_confidence": event.IntentConfidence,
		"entity_types":      pq.Array(entityTypes),
		"filters_used":      pq.Array(nonNilStrings(event.FiltersUsed)),
		"result_count":      event.ResultCount,
		"zero_result":       event.ZeroResult,
		"latency_ms":        event.LatencyMs,
		"session_id":        sql.NullString{String: event.SessionID, Valid: event.SessionID != ""},
		"created_at":        event.CreatedAt,
	}

	query, args, err := a.db.Insert(searchAnalyticsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// RecordClick overwrites the click columns of a stored event
func (a *SearchAnalyticsAdapter) RecordClick(ctx context.Context, eventID string, click *entities.ClickEvent) error {
	if eventID == "" || click == nil {
		return apperrors.NewValidationError("event id and click are required")
	}

	query, args, err := a.db.Update(searchAnalyticsTable).
		Set(goqu.Record{
			"clicked_article_id": click.ArticleID,
			"time_spent_seconds": click.TimeSpentSeconds,
			"click_count":        click.Clicks,
			"clicked_at":         click.ClickedAt,
		}).
		Where(goqu.Ex{"id": eventID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record click", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("search event not found: " + eventID)
	}
	return nil
}

// GetZeroResultQueries groups zero-result searches since the given time by
// normalized query, most frequent first.
func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]entities.QueryCount, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := a.db.From(searchAnalyticsTable).
		Select(
			goqu.C("normalized_query"),
			goqu.COUNT("*").As("search_count"),
			goqu.MAX("created_at").As("last_seen"),
		).
		Where(
			goqu.Ex{"zero_result": true},
			goqu.C("created_at").Gte(since),
		).
		GroupBy("normalized_query").
		Order(goqu.I("search_count").Desc(), goqu.I("last_seen").Desc(), goqu.C("normalized_query").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	counts := []entities.QueryCount{}
	for rows.Next() {
		var qc entities.QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count, &qc.LastSeen); err != nil {
			return nil, apperrors.NewInternalError("failed to scan zero result query", err)
		}
		counts = append(counts, qc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate zero result queries", err)
	}
	return counts, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
