package entities

import (
	"math"
	"time"
)

// FuzzinessAuto lets the engine choose the edit distance from the term length.
const FuzzinessAuto = -1

// AutoFuzziness is the edit distance FuzzinessAuto resolves to for a term:
// exact up to 2 characters, 1 edit up to 5, 2 edits beyond.
func AutoFuzziness(term string) int {
	n := len([]rune(term))
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// MatchClause matches the query text against one field.
type MatchClause struct {
	Field string  `json:"field"`
	Boost float64 `json:"boost"`
}

// FuzzyClause is the typo tolerant counterpart of a MatchClause.
type FuzzyClause struct {
	Field         string  `json:"field"`
	Boost         float64 `json:"boost"`
	Fuzziness     int     `json:"fuzziness"`
	MaxExpansions int     `json:"max_expansions"`
}

// ExpansionClause matches synonym terms with a reduced weight.
type ExpansionClause struct {
	Terms  []string `json:"terms"`
	Fields []string `json:"fields"`
	Boost  float64  `json:"boost"`
}

// TermFilter requires an exact keyword value.
type TermFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// RangeFilter requires a numeric field within [Min, Max]. A nil bound is open.
type RangeFilter struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// Contains reports whether v satisfies the range.
func (r RangeFilter) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// ModifierKind selects how a ScoreModifier turns a field value into a multiplier.
type ModifierKind string

const (
	// ModifierLinear yields Floor + Factor*value.
	ModifierLinear ModifierKind = "linear"
	// ModifierLog1p yields 1 + Factor*ln(1+value).
	ModifierLog1p ModifierKind = "log1p"
	// ModifierLookup yields Lookup[value].
	ModifierLookup ModifierKind = "lookup"
)

// ScoreModifier multiplies a hit's relevance by a function of one source field.
// Hits without the field get a neutral multiplier of 1.
type ScoreModifier struct {
	Field  string             `json:"field"`
	Kind   ModifierKind       `json:"kind"`
	Floor  float64            `json:"floor,omitempty"`
	Factor float64            `json:"factor,omitempty"`
	Lookup map[string]float64 `json:"lookup,omitempty"`
}

// Multiplier evaluates the modifier against a hit's source fields.
func (m ScoreModifier) Multiplier(src map[string]interface{}) float64 {
	switch m.Kind {
	case ModifierLinear:
		v, ok := NumberField(src, m.Field)
		if !ok {
			return 1
		}
		return m.Floor + m.Factor*v
	case ModifierLog1p:
		v, ok := NumberField(src, m.Field)
		if !ok || v < 0 {
			return 1
		}
		return 1 + m.Factor*math.Log1p(v)
	case ModifierLookup:
		s := stringField(src, m.Field)
		if s == "" {
			return 1
		}
		if w, ok := m.Lookup[s]; ok {
			return w
		}
		return 1
	default:
		return 1
	}
}

// AggregationKind selects terms or range bucketing.
type AggregationKind string

const (
	AggregationTerms AggregationKind = "terms"
	AggregationRange AggregationKind = "range"
)

// RangeBucket is a named numeric bucket [Min, Max). A nil bound is open.
type RangeBucket struct {
	Name string   `json:"name" yaml:"name"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Contains reports whether v falls in the bucket.
func (b RangeBucket) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v >= *b.Max {
		return false
	}
	return true
}

// AggregationRequest asks the engine for facet counts over a field.
type AggregationRequest struct {
	Name   string          `json:"name"`
	Field  string          `json:"field"`
	Kind   AggregationKind `json:"kind"`
	Size   int             `json:"size"`
	Ranges []RangeBucket   `json:"ranges,omitempty"`
}

// EngineQuery is the structured request handed to a search engine. It is
// produced by the query builder and treated as read-only by engines.
type EngineQuery struct {
	Text            string               `json:"text"`
	Match           []MatchClause        `json:"match"`
	Fuzzy           []FuzzyClause        `json:"fuzzy"`
	Expansion       *ExpansionClause     `json:"expansion,omitempty"`
	TermFilters     []TermFilter         `json:"term_filters,omitempty"`
	RangeFilters    []RangeFilter        `json:"range_filters,omitempty"`
	ActiveOnly      bool                 `json:"active_only"`
	ScoreModifiers  []ScoreModifier      `json:"score_modifiers"`
	Aggregations    []AggregationRequest `json:"aggregations"`
	HighlightFields []string             `json:"highlight_fields"`
	Size            int                  `json:"size"`
	From            int                  `json:"from"`
}

// EngineHit is a single raw match returned by an engine.
type EngineHit struct {
	ID         string                 `json:"id"`
	Score      float64                `json:"score"`
	Source     map[string]interface{} `json:"source"`
	Highlights map[string][]string    `json:"highlights,omitempty"`
}

// AggregationBucket is one facet value and its document count.
type AggregationBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// EngineResponse is the raw result of executing an EngineQuery.
type EngineResponse struct {
	Hits         []EngineHit                    `json:"hits"`
	Aggregations map[string][]AggregationBucket `json:"aggregations"`
	Total        int                            `json:"total"`
	Took         time.Duration                  `json:"took"`
}

// SimilarityRequest asks for articles resembling a given one.
type SimilarityRequest struct {
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords"`
	ExcludeIDs []string `json:"exclude_ids"`
	Limit      int      `json:"limit"`
}
