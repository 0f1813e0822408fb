package services

import (
	"context"
	"encoding/json"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

// ErrEmptyQuery is returned when nothing is left of a query after normalization.
var ErrEmptyQuery = apperrors.NewValidationError("query is empty")

const interpretationTTLSeconds = 86400

var (
	unclassifiedCounterOnce sync.Once
	unclassifiedCounter     metric.Int64Counter
)

// interpretation is the filter independent part of a SearchQuery, cached per normalized text.
type interpretation struct {
	Intent        entities.Intent   `json:"intent"`
	Confidence    float64           `json:"confidence"`
	Entities      []entities.Entity `json:"entities"`
	ExpandedTerms []string          `json:"expanded_terms"`
}

// QueryPreprocessor turns raw user input into an immutable SearchQuery.
type QueryPreprocessor struct {
	intents  *IntentClassifier
	entities *EntityExtractor
	expander *TermExpansionService
	filters  *FilterNormalizer
	cache    providers.CacheProvider
}

// NewQueryPreprocessor wires the preprocessing stages together.
func NewQueryPreprocessor(
	intents *IntentClassifier,
	extractor *EntityExtractor,
	expander *TermExpansionService,
	filters *FilterNormalizer,
) *QueryPreprocessor {
	return &QueryPreprocessor{
		intents:  intents,
		entities: extractor,
		expander: expander,
		filters:  filters,
	}
}

// NewDefaultQueryPreprocessor builds a preprocessor from the built in rule
// tables and the given synonym service.
func NewDefaultQueryPreprocessor(expander *TermExpansionService) *QueryPreprocessor {
	return NewQueryPreprocessor(
		NewIntentClassifier(DefaultIntentRules()),
		NewEntityExtractor(DefaultEntityRules()),
		expander,
		NewFilterNormalizer(),
	)
}

// SetCache sets the cache provider for interpretation results.
func (p *QueryPreprocessor) SetCache(cache providers.CacheProvider) {
	p.cache = cache
}

// Preprocess normalizes raw, classifies intent, extracts entities, expands
// terms and validates filters. It returns ErrEmptyQuery when the normalized
// text is empty.
func (p *QueryPreprocessor) Preprocess(ctx context.Context, raw string, filters map[string]interface{}) (*entities.SearchQuery, error) {
	normalized := utils.NormalizeText(raw)
	if normalized == "" {
		return nil, ErrEmptyQuery
	}

	interp := p.interpret(ctx, normalized)
	set, warnings := p.filters.Normalize(filters)

	if len(warnings) > 0 {
		logger := observability.LoggerFromContext(ctx)
		for _, w := range warnings {
			logger.Debug().Str("filter", w.Key).Str("reason", w.Reason).Msg("Dropped invalid search filter")
		}
	}
	if interp.Intent == entities.IntentGeneral {
		recordUnclassified(ctx, len(interp.Entities) > 0)
	}

	return &entities.SearchQuery{
		Raw:           raw,
		Normalized:    normalized,
		Intent:        interp.Intent,
		Confidence:    interp.Confidence,
		Entities:      interp.Entities,
		ExpandedTerms: interp.ExpandedTerms,
		Filters:       set,
		Warnings:      warnings,
	}, nil
}

func (p *QueryPreprocessor) interpret(ctx context.Context, normalized string) interpretation {
	cacheKey := providers.CacheKey(providers.CacheNamespaceInterpretation, normalized)
	if p.cache != nil {
		if data, err := p.cache.Get(ctx, cacheKey); err == nil {
			var cached interpretation
			if json.Unmarshal(data, &cached) == nil && cached.Intent.Valid() {
				return cached
			}
		}
	}

	intent, confidence := p.intents.Classify(normalized)
	found := p.entities.Extract(normalized)
	if found == nil {
		found = []entities.Entity{}
	}
	result := interpretation{
		Intent:        intent,
		Confidence:    confidence,
		Entities:      found,
		ExpandedTerms: p.expander.Expand(normalized, found),
	}

	if p.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = p.cache.Set(ctx, cacheKey, data, interpretationTTLSeconds)
		}
	}
	return result
}

func initUnclassifiedCounter() {
	meter := otel.Meter("github.com/zatekoja/helpdesk-search/query_preprocessor")
	counter, err := meter.Int64Counter(
		"search.query_unclassified.count",
		metric.WithDescription("Count of queries that matched no intent pattern"),
	)
	if err == nil {
		unclassifiedCounter = counter
	}
}

func recordUnclassified(ctx context.Context, hasEntities bool) {
	unclassifiedCounterOnce.Do(initUnclassifiedCounter)
	if unclassifiedCounter == nil {
		return
	}
	unclassifiedCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("search.has_entities", hasEntities)))
}
