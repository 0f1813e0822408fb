package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// filterAliases maps accepted spellings to canonical filter keys.
var filterAliases = map[string]string{
	entities.FilterCategory:       entities.FilterCategory,
	entities.FilterSubcategory:    entities.FilterSubcategory,
	entities.FilterDifficulty:     entities.FilterDifficulty,
	"difficulty_level":            entities.FilterDifficulty,
	entities.FilterMaxTimeMinutes: entities.FilterMaxTimeMinutes,
	"max_time":                    entities.FilterMaxTimeMinutes,
	entities.FilterMinSuccessRate: entities.FilterMinSuccessRate,
}

// FilterNormalizer validates raw filter input into a canonical FilterSet.
// Invalid entries are dropped and reported, never coerced.
type FilterNormalizer struct{}

// NewFilterNormalizer creates a filter normalizer
func NewFilterNormalizer() *FilterNormalizer {
	return &FilterNormalizer{}
}

// Normalize returns the valid filters in raw and a warning for every dropped entry.
// Empty values are treated as absent.
func (n *FilterNormalizer) Normalize(raw map[string]interface{}) (entities.FilterSet, []entities.FilterWarning) {
	var set entities.FilterSet
	var warnings []entities.FilterWarning

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Canonical spellings sort before aliases so they win on conflict.
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := isCanonicalKey(keys[i]), isCanonicalKey(keys[j])
		if ci != cj {
			return ci
		}
		return keys[i] < keys[j]
	})

	assigned := make(map[string]bool)
	for _, key := range keys {
		value := raw[key]
		if isEmptyValue(value) {
			continue
		}
		canonical, ok := filterAliases[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			warnings = append(warnings, entities.FilterWarning{Key: key, Value: value, Reason: "unknown filter"})
			continue
		}
		if assigned[canonical] {
			warnings = append(warnings, entities.FilterWarning{Key: key, Value: value, Reason: fmt.Sprintf("duplicate of %s", canonical)})
			continue
		}

		if reason := n.apply(&set, canonical, value); reason != "" {
			warnings = append(warnings, entities.FilterWarning{Key: key, Value: value, Reason: reason})
			continue
		}
		assigned[canonical] = true
	}
	return set, warnings
}

// apply sets one canonical filter and returns a non-empty reason when the value is rejected.
func (n *FilterNormalizer) apply(set *entities.FilterSet, key string, value interface{}) string {
	switch key {
	case entities.FilterCategory, entities.FilterSubcategory:
		s, ok := value.(string)
		if !ok {
			return "must be a string"
		}
		if key == entities.FilterCategory {
			set.Category = strings.TrimSpace(s)
		} else {
			set.Subcategory = strings.TrimSpace(s)
		}
	case entities.FilterDifficulty:
		s, ok := value.(string)
		if !ok {
			return "must be a string"
		}
		d, ok := entities.ParseDifficulty(s)
		if !ok {
			return "must be one of easy, medium, hard"
		}
		set.Difficulty = d
	case entities.FilterMaxTimeMinutes:
		f, ok := toNumber(value)
		if !ok {
			return "must be a number"
		}
		if f != math.Trunc(f) {
			return "must be a whole number of minutes"
		}
		if f < entities.MinEstimatedTimeMinutes || f > entities.MaxEstimatedTimeMinutes {
			return fmt.Sprintf("must be between %d and %d minutes", entities.MinEstimatedTimeMinutes, entities.MaxEstimatedTimeMinutes)
		}
		minutes := int(f)
		set.MaxTimeMinutes = &minutes
	case entities.FilterMinSuccessRate:
		f, ok := toNumber(value)
		if !ok {
			return "must be a number"
		}
		if math.IsNaN(f) || f < 0 || f > 1 {
			return "must be between 0 and 1"
		}
		set.MinSuccessRate = &f
	}
	return ""
}

func isCanonicalKey(key string) bool {
	switch key {
	case entities.FilterCategory, entities.FilterSubcategory, entities.FilterDifficulty,
		entities.FilterMaxTimeMinutes, entities.FilterMinSuccessRate:
		return true
	}
	return false
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func toNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
