package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SearchMetrics holds query pipeline metrics
type SearchMetrics struct {
	SearchCount     metric.Int64Counter
	ZeroResultCount metric.Int64Counter
	EngineDuration  metric.Float64Histogram
	EngineFailures  metric.Int64Counter
	RelatedFailures metric.Int64Counter
	ClickCount      metric.Int64Counter
}

// InitSearchMetrics initializes query pipeline metrics
func InitSearchMetrics() (*SearchMetrics, error) {
	meter := otel.Meter("github.com/zatekoja/helpdesk-search/search")

	searchCount, err := meter.Int64Counter(
		"search.request.count",
		metric.WithDescription("Number of executed searches"),
	)
	if err != nil {
		return nil, err
	}

	zeroResultCount, err := meter.Int64Counter(
		"search.zero_result.count",
		metric.WithDescription("Number of searches that returned no results"),
	)
	if err != nil {
		return nil, err
	}

	engineDuration, err := meter.Float64Histogram(
		"search.engine.duration",
		metric.WithDescription("Search engine call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	engineFailures, err := meter.Int64Counter(
		"search.engine.failure.count",
		metric.WithDescription("Number of failed search engine calls"),
	)
	if err != nil {
		return nil, err
	}

	relatedFailures, err := meter.Int64Counter(
		"search.related_lookup.failure.count",
		metric.WithDescription("Number of failed related article lookups"),
	)
	if err != nil {
		return nil, err
	}

	clickCount, err := meter.Int64Counter(
		"search.click.count",
		metric.WithDescription("Number of tracked result clicks"),
	)
	if err != nil {
		return nil, err
	}

	return &SearchMetrics{
		SearchCount:     searchCount,
		ZeroResultCount: zeroResultCount,
		EngineDuration:  engineDuration,
		EngineFailures:  engineFailures,
		RelatedFailures: relatedFailures,
		ClickCount:      clickCount,
	}, nil
}

// RecordSearch records one executed search. A nil receiver is a no-op.
func (m *SearchMetrics) RecordSearch(ctx context.Context, intent string, resultCount int, engineTime time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("search.intent", intent))
	m.SearchCount.Add(ctx, 1, attrs)
	m.EngineDuration.Record(ctx, float64(engineTime.Microseconds())/1000, attrs)
	if resultCount == 0 {
		m.ZeroResultCount.Add(ctx, 1, attrs)
	}
}

// RecordEngineFailure records a failed engine call.
func (m *SearchMetrics) RecordEngineFailure(ctx context.Context, engineTime time.Duration) {
	if m == nil {
		return
	}
	m.EngineFailures.Add(ctx, 1)
	m.EngineDuration.Record(ctx, float64(engineTime.Microseconds())/1000,
		metric.WithAttributes(attribute.Bool("search.failed", true)))
}

// RecordRelatedFailure records a failed related article lookup.
func (m *SearchMetrics) RecordRelatedFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.RelatedFailures.Add(ctx, 1)
}

// RecordClick records a click tracking call.
func (m *SearchMetrics) RecordClick(ctx context.Context, attached bool) {
	if m == nil {
		return
	}
	m.ClickCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("search.click_attached", attached)))
}
