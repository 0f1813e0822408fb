package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Intent is the coarse purpose of a query.
type Intent string

const (
	IntentProblem  Intent = "problem"
	IntentQuestion Intent = "question"
	IntentRequest  Intent = "request"
	IntentGeneral  Intent = "general"
)

// IntentPriority orders intents for tie breaking, highest first.
var IntentPriority = []Intent{IntentProblem, IntentQuestion, IntentRequest, IntentGeneral}

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentProblem, IntentQuestion, IntentRequest, IntentGeneral:
		return true
	}
	return false
}

// EntityType classifies a recognized span of query text.
type EntityType string

const (
	EntitySoftware  EntityType = "software"
	EntityHardware  EntityType = "hardware"
	EntityErrorCode EntityType = "error_code"
)

// Entity is a typed span of the normalized query. Start and End are byte
// offsets with Normalized[Start:End] == Text.
type Entity struct {
	Type  EntityType `json:"type"`
	Text  string     `json:"text"`
	Start int        `json:"start"`
	End   int        `json:"end"`
}

// Len is the span length in bytes.
func (e Entity) Len() int { return e.End - e.Start }

// Overlaps reports whether the two spans share at least one byte.
func (e Entity) Overlaps(o Entity) bool {
	return e.Start < o.End && o.Start < e.End
}

// Canonical filter keys.
const (
	FilterCategory       = "category"
	FilterSubcategory    = "subcategory"
	FilterDifficulty     = "difficulty"
	FilterMaxTimeMinutes = "max_time_minutes"
	FilterMinSuccessRate = "min_success_rate"
)

// FilterSet is the validated, canonical form of user supplied filters.
type FilterSet struct {
	Category       string     `json:"category,omitempty"`
	Subcategory    string     `json:"subcategory,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	MaxTimeMinutes *int       `json:"max_time_minutes,omitempty"`
	MinSuccessRate *float64   `json:"min_success_rate,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f FilterSet) IsEmpty() bool {
	return len(f.Keys()) == 0
}

// Keys returns the set filter keys in canonical order.
func (f FilterSet) Keys() []string {
	keys := make([]string, 0, 5)
	if f.Category != "" {
		keys = append(keys, FilterCategory)
	}
	if f.Subcategory != "" {
		keys = append(keys, FilterSubcategory)
	}
	if f.Difficulty != "" {
		keys = append(keys, FilterDifficulty)
	}
	if f.MaxTimeMinutes != nil {
		keys = append(keys, FilterMaxTimeMinutes)
	}
	if f.MinSuccessRate != nil {
		keys = append(keys, FilterMinSuccessRate)
	}
	return keys
}

// Params renders the set back into raw filter input. Normalizing the result
// yields an equal FilterSet.
func (f FilterSet) Params() map[string]interface{} {
	params := make(map[string]interface{})
	if f.Category != "" {
		params[FilterCategory] = f.Category
	}
	if f.Subcategory != "" {
		params[FilterSubcategory] = f.Subcategory
	}
	if f.Difficulty != "" {
		params[FilterDifficulty] = string(f.Difficulty)
	}
	if f.MaxTimeMinutes != nil {
		params[FilterMaxTimeMinutes] = *f.MaxTimeMinutes
	}
	if f.MinSuccessRate != nil {
		params[FilterMinSuccessRate] = *f.MinSuccessRate
	}
	return params
}

// FilterWarning reports a filter that was dropped during normalization.
type FilterWarning struct {
	Key    string      `json:"key"`
	Value  interface{} `json:"value,omitempty"`
	Reason string      `json:"reason"`
}

func (w FilterWarning) Error() string {
	return fmt.Sprintf("filter %q dropped: %s", w.Key, w.Reason)
}

// SearchQuery is the understood form of a raw user query. It is built once by
// the preprocessor and must not be modified afterwards.
type SearchQuery struct {
	Raw           string          `json:"raw"`
	Normalized    string          `json:"normalized"`
	Intent        Intent          `json:"intent"`
	Confidence    float64         `json:"confidence"`
	Entities      []Entity        `json:"entities"`
	ExpandedTerms []string        `json:"expanded_terms"`
	Filters       FilterSet       `json:"filters"`
	Warnings      []FilterWarning `json:"warnings,omitempty"`
}

// Terms returns the whitespace separated tokens of the normalized text.
func (q *SearchQuery) Terms() []string {
	return strings.Fields(q.Normalized)
}

// EntityTypes returns the distinct entity types found in the query, sorted.
func (q *SearchQuery) EntityTypes() []EntityType {
	seen := make(map[EntityType]struct{}, len(q.Entities))
	types := make([]EntityType, 0, len(q.Entities))
	for _, e := range q.Entities {
		if _, ok := seen[e.Type]; ok {
			continue
		}
		seen[e.Type] = struct{}{}
		types = append(types, e.Type)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
