package services

import (
	"strconv"
	"strings"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

const defaultFacetSize = 10

// QueryBuilder translates a SearchQuery into an engine independent EngineQuery.
// Build is deterministic: equal inputs give equal outputs.
type QueryBuilder struct {
	cfg entities.BoostConfig
}

// NewQueryBuilder creates a query builder with the given ranking configuration.
func NewQueryBuilder(cfg entities.BoostConfig) *QueryBuilder {
	return &QueryBuilder{cfg: cfg}
}

// Config returns the ranking configuration in use.
func (b *QueryBuilder) Config() entities.BoostConfig {
	return b.cfg
}

// Build creates the engine query for one page of results.
func (b *QueryBuilder) Build(q *entities.SearchQuery, size, from int) *entities.EngineQuery {
	eq := &entities.EngineQuery{
		Text:            q.Raw,
		ActiveOnly:      true,
		HighlightFields: append([]string(nil), b.cfg.HighlightFields...),
		Size:            size,
		From:            from,
	}

	for _, f := range b.cfg.Fields {
		if f.Boost <= 0 {
			continue
		}
		eq.Match = append(eq.Match, entities.MatchClause{Field: f.Field, Boost: f.Boost})
		if fuzziness, ok := parseFuzziness(f.Fuzziness); ok {
			eq.Fuzzy = append(eq.Fuzzy, entities.FuzzyClause{
				Field:         f.Field,
				Boost:         f.Boost * b.fuzzyRatio(),
				Fuzziness:     fuzziness,
				MaxExpansions: f.MaxExpansions,
			})
		}
	}

	if len(q.ExpandedTerms) > 0 && len(b.cfg.ExpansionFields) > 0 {
		eq.Expansion = &entities.ExpansionClause{
			Terms:  append([]string(nil), q.ExpandedTerms...),
			Fields: append([]string(nil), b.cfg.ExpansionFields...),
			Boost:  b.expansionBoost(),
		}
	}

	b.addFilters(eq, q.Filters)
	eq.ScoreModifiers = b.scoreModifiers()
	eq.Aggregations = b.aggregations()
	return eq
}

func (b *QueryBuilder) addFilters(eq *entities.EngineQuery, f entities.FilterSet) {
	if f.Category != "" {
		eq.TermFilters = append(eq.TermFilters, entities.TermFilter{Field: entities.FieldCategory, Value: f.Category})
	}
	if f.Subcategory != "" {
		eq.TermFilters = append(eq.TermFilters, entities.TermFilter{Field: entities.FieldSubcategory, Value: f.Subcategory})
	}
	if f.Difficulty != "" {
		eq.TermFilters = append(eq.TermFilters, entities.TermFilter{Field: entities.FieldDifficulty, Value: string(f.Difficulty)})
	}
	if f.MaxTimeMinutes != nil {
		maxMinutes := float64(*f.MaxTimeMinutes)
		eq.RangeFilters = append(eq.RangeFilters, entities.RangeFilter{Field: entities.FieldEstimatedTime, Max: &maxMinutes})
	}
	if f.MinSuccessRate != nil {
		minRate := *f.MinSuccessRate
		eq.RangeFilters = append(eq.RangeFilters, entities.RangeFilter{Field: entities.FieldSuccessRate, Min: &minRate})
	}
}

func (b *QueryBuilder) scoreModifiers() []entities.ScoreModifier {
	mods := []entities.ScoreModifier{
		{
			Field:  entities.FieldSuccessRate,
			Kind:   entities.ModifierLinear,
			Floor:  b.cfg.SuccessRate.Floor,
			Factor: b.cfg.SuccessRate.Factor,
		},
		{
			Field:  entities.FieldViewCount,
			Kind:   entities.ModifierLog1p,
			Factor: b.cfg.ViewCountFactor,
		},
	}
	if len(b.cfg.Difficulty) > 0 {
		lookup := make(map[string]float64, len(b.cfg.Difficulty))
		for k, v := range b.cfg.Difficulty {
			lookup[k] = v
		}
		mods = append(mods, entities.ScoreModifier{
			Field:  entities.FieldDifficulty,
			Kind:   entities.ModifierLookup,
			Lookup: lookup,
		})
	}
	return mods
}

func (b *QueryBuilder) aggregations() []entities.AggregationRequest {
	maxSize := b.cfg.MaxFacetSize
	if maxSize <= 0 {
		maxSize = 100
	}
	aggs := make([]entities.AggregationRequest, 0, len(b.cfg.Facets))
	for _, f := range b.cfg.Facets {
		size := f.Size
		if size <= 0 {
			size = defaultFacetSize
		}
		if size > maxSize {
			size = maxSize
		}
		aggs = append(aggs, entities.AggregationRequest{
			Name:   f.Name,
			Field:  f.Field,
			Kind:   f.Kind,
			Size:   size,
			Ranges: append([]entities.RangeBucket(nil), f.Ranges...),
		})
	}
	return aggs
}

// expansionBoost never exceeds the content boost so synonyms cannot outrank
// the user's own words.
func (b *QueryBuilder) expansionBoost() float64 {
	boost := b.cfg.ExpansionBoost
	if boost <= 0 {
		boost = 0.5
	}
	if content := b.cfg.FieldBoost(entities.FieldContent); content > 0 && boost > content {
		boost = content
	}
	return boost
}

func (b *QueryBuilder) fuzzyRatio() float64 {
	if b.cfg.FuzzyBoostRatio <= 0 || b.cfg.FuzzyBoostRatio > 1 {
		return 1
	}
	return b.cfg.FuzzyBoostRatio
}

func parseFuzziness(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if s == "auto" {
		return entities.FuzzinessAuto, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 2 {
		return 0, false
	}
	return n, true
}
