package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

// SearchUnavailableError reports an engine failure after the query was
// understood. Query is the preprocessed query.
type SearchUnavailableError struct {
	Query *entities.SearchQuery
	Err   *apperrors.AppError
}

func newSearchUnavailableError(q *entities.SearchQuery, cause error) *SearchUnavailableError {
	return &SearchUnavailableError{
		Query: q,
		Err:   apperrors.NewUnavailableError("search engine unavailable", cause),
	}
}

func (e *SearchUnavailableError) Error() string {
	return e.Err.Error()
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Err
}

// SearchRequest is one search call.
type SearchRequest struct {
	Text      string
	Filters   map[string]interface{}
	PageSize  int
	Page      int
	SessionID string
}

// SearchResponse is the outcome of a successful search.
type SearchResponse struct {
	Query   *entities.SearchQuery   `json:"query"`
	Results []entities.SearchResult `json:"results"`
	Facets  entities.FacetSummary   `json:"facets"`
	Total   int                     `json:"total"`
	Page    int                     `json:"page"`
	TookMs  int64                   `json:"took_ms"`
}

// SearchServiceConfig holds orchestrator limits.
type SearchServiceConfig struct {
	DefaultPageSize        int
	MaxPageSize            int
	SuggestionLimit        int
	SuggestionCacheSeconds int
	// RescoreWindow is the number of leading engine hits ranked together
	// before a page is cut, so page size does not change the order.
	RescoreWindow int
}

// maxRescoreWindow is the largest window fetched in one engine call. It
// matches the Typesense per_page ceiling.
const maxRescoreWindow = 250

// DefaultSearchServiceConfig returns the built in limits.
func DefaultSearchServiceConfig() SearchServiceConfig {
	return SearchServiceConfig{
		DefaultPageSize:        20,
		MaxPageSize:            100,
		SuggestionLimit:        5,
		SuggestionCacheSeconds: 300,
		RescoreWindow:          100,
	}
}

// SearchService runs the query pipeline: preprocess, build, execute, rank,
// enrich and record.
type SearchService struct {
	preprocessor *QueryPreprocessor
	builder      *QueryBuilder
	engine       providers.SearchEngine
	ranking      *SearchRankingService
	processor    *ResultProcessor
	ledger       *AnalyticsLedger
	spelling     *SpellingService
	suggester    providers.SuggestionProvider
	sink         repositories.SearchAnalyticsRepository
	cache        providers.CacheProvider
	metrics      *observability.SearchMetrics
	cfg          SearchServiceConfig
	suggestGroup singleflight.Group
}

// SearchServiceDeps are the collaborators of a SearchService.
type SearchServiceDeps struct {
	Preprocessor *QueryPreprocessor
	Builder      *QueryBuilder
	Engine       providers.SearchEngine
	Processor    *ResultProcessor
	Ledger       *AnalyticsLedger
	Spelling     *SpellingService
	// Suggester, Sink, Cache and Metrics are optional.
	Suggester providers.SuggestionProvider
	Sink      repositories.SearchAnalyticsRepository
	Cache     providers.CacheProvider
	Metrics   *observability.SearchMetrics
}

// NewSearchService creates the search orchestrator
func NewSearchService(deps SearchServiceDeps, cfg SearchServiceConfig) *SearchService {
	def := DefaultSearchServiceConfig()
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = def.DefaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = def.SuggestionLimit
	}
	if cfg.SuggestionCacheSeconds <= 0 {
		cfg.SuggestionCacheSeconds = def.SuggestionCacheSeconds
	}
	if cfg.RescoreWindow <= 0 {
		cfg.RescoreWindow = def.RescoreWindow
	}
	if cfg.RescoreWindow > maxRescoreWindow {
		cfg.RescoreWindow = maxRescoreWindow
	}

	s := &SearchService{
		preprocessor: deps.Preprocessor,
		builder:      deps.Builder,
		engine:       deps.Engine,
		ranking:      NewSearchRankingService(),
		processor:    deps.Processor,
		ledger:       deps.Ledger,
		spelling:     deps.Spelling,
		suggester:    deps.Suggester,
		sink:         deps.Sink,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		cfg:          cfg,
	}
	if s.processor != nil && s.metrics != nil {
		s.processor.OnRelatedFailure(s.metrics.RecordRelatedFailure)
	}
	return s
}

// Search executes one search. It returns ErrEmptyQuery for blank input and a
// *SearchUnavailableError when the engine fails. Only successful searches are
// recorded in the ledger.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()
	start := time.Now()

	q, err := s.preprocessor.Preprocess(ctx, req.Text, req.Filters)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.String("search.intent", string(q.Intent)),
		attribute.Float64("search.confidence", q.Confidence),
		attribute.Int("search.entities", len(q.Entities)),
	)

	size := s.pageSize(req.PageSize)
	page := req.Page
	if page < 1 {
		page = 1
	}
	eq, offset := s.buildWindow(q, size, (page-1)*size)

	engineStart := time.Now()
	resp, err := s.engine.Search(ctx, eq)
	engineTime := time.Since(engineStart)
	if err != nil {
		s.metrics.RecordEngineFailure(ctx, engineTime)
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("query", q.Normalized).
			Msg("Search engine request failed")
		return nil, newSearchUnavailableError(q, err)
	}

	ranked := pageOf(s.ranking.Rank(eq, resp.Hits), offset, size)
	results, facets := s.processor.Process(ctx, ranked, resp.Aggregations, eq.Aggregations, q)

	total := resp.Total
	if total < len(results) {
		total = len(results)
	}

	latency := time.Since(start)
	s.ledger.RecordQuery(ctx, entities.SearchEvent{
		Query:            q.Raw,
		NormalizedQuery:  q.Normalized,
		DetectedIntent:   q.Intent,
		IntentConfidence: q.Confidence,
		EntityTypes:      q.EntityTypes(),
		FiltersUsed:      q.Filters.Keys(),
		ResultCount:      total,
		LatencyMs:        int(latency.Milliseconds()),
		SessionID:        req.SessionID,
	})
	s.metrics.RecordSearch(ctx, string(q.Intent), total, engineTime)

	observability.LoggerFromContext(ctx).Debug().
		Str("query", q.Normalized).
		Str("intent", string(q.Intent)).
		Int("results", total).
		Dur("engine_time", engineTime).
		Msg("Search completed")

	return &SearchResponse{
		Query:   q,
		Results: results,
		Facets:  facets,
		Total:   total,
		Page:    page,
		TookMs:  latency.Milliseconds(),
	}, nil
}

// buildWindow builds the engine query for a page. Pages inside the rescore
// window fetch hits [0, max(window, from+size)) so score modifiers rank the
// same candidates whatever the page size; offset locates the page in that
// window. Pages past maxRescoreWindow are fetched and ranked on their own.
func (s *SearchService) buildWindow(q *entities.SearchQuery, size, from int) (*entities.EngineQuery, int) {
	window := s.cfg.RescoreWindow
	if from+size > window {
		window = from + size
	}
	if window > maxRescoreWindow {
		return s.builder.Build(q, size, from), 0
	}
	return s.builder.Build(q, window, 0), from
}

func pageOf(hits []ScoredHit, offset, size int) []ScoredHit {
	if offset >= len(hits) {
		return nil
	}
	end := offset + size
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}

func (s *SearchService) pageSize(requested int) int {
	switch {
	case requested <= 0:
		return s.cfg.DefaultPageSize
	case requested > s.cfg.MaxPageSize:
		return s.cfg.MaxPageSize
	default:
		return requested
	}
}

// GetSearchSuggestions completes a partial query from popular past searches
// and article titles.
func (s *SearchService) GetSearchSuggestions(ctx context.Context, partial string) ([]string, error) {
	prefix := utils.NormalizeText(partial)
	if len([]rune(prefix)) < 2 {
		return []string{}, nil
	}

	cacheKey := providers.CacheKey(providers.CacheNamespaceSuggestions, prefix)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []string
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	v, err, _ := s.suggestGroup.Do(prefix, func() (interface{}, error) {
		return s.computeSuggestions(ctx, prefix), nil
	})
	if err != nil {
		return nil, err
	}
	suggestions := v.([]string)

	if s.cache != nil && len(suggestions) > 0 {
		if data, err := json.Marshal(suggestions); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cfg.SuggestionCacheSeconds); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Failed to cache search suggestions")
			}
		}
	}
	return suggestions, nil
}

func (s *SearchService) computeSuggestions(ctx context.Context, prefix string) []string {
	limit := s.cfg.SuggestionLimit
	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	add := func(candidate string) {
		key := strings.ToLower(strings.TrimSpace(candidate))
		if key == "" || len(out) >= limit {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
	}

	for _, q := range s.ledger.PopularQueries(prefix, limit) {
		add(q)
	}
	if s.suggester != nil && len(out) < limit {
		titles, err := s.suggester.SuggestTitles(ctx, prefix, limit)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("prefix", prefix).Msg("Title suggestions failed")
		}
		for _, t := range titles {
			add(t)
		}
	}
	return out
}

// GetDidYouMean returns at most one corrected query.
func (s *SearchService) GetDidYouMean(ctx context.Context, text string) (string, bool) {
	if s.spelling == nil {
		return "", false
	}
	return s.spelling.DidYouMean(text)
}

// TrackClickThrough attaches a result click to the search it came from.
func (s *SearchService) TrackClickThrough(ctx context.Context, req ClickRequest) (bool, error) {
	if utils.NormalizeText(req.Query) == "" {
		return false, apperrors.NewValidationError("query is required")
	}
	if strings.TrimSpace(req.ArticleID) == "" {
		return false, apperrors.NewValidationError("article_id is required")
	}
	if req.TimeSpentSeconds < 0 {
		return false, apperrors.NewValidationError("time_spent_seconds must not be negative")
	}
	attached := s.ledger.AttachClick(ctx, req)
	s.metrics.RecordClick(ctx, attached)
	return attached, nil
}

// GetSearchAnalytics reports on the last days of search activity.
func (s *SearchService) GetSearchAnalytics(ctx context.Context, days, topN int) *entities.AggregateReport {
	return s.ledger.Report(s.ledger.LastDays(days), topN)
}

// GetZeroResultQueries lists the most frequent queries without results,
// from the durable sink when one is configured.
func (s *SearchService) GetZeroResultQueries(ctx context.Context, days, limit int) ([]entities.QueryCount, error) {
	period := s.ledger.LastDays(days)
	if s.sink != nil {
		queries, err := s.sink.GetZeroResultQueries(ctx, period.From, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load zero result queries: %w", err)
		}
		return queries, nil
	}
	return s.ledger.Report(period, limit).TopZeroResultQueries, nil
}
