package entities

import (
	"strconv"
	"strings"
	"time"
)

// Article field names shared by the query builder, the engine adapters and the indexer.
const (
	FieldTitle         = "title"
	FieldContent       = "content"
	FieldCategory      = "category"
	FieldSubcategory   = "subcategory"
	FieldKeywords      = "keywords"
	FieldSymptoms      = "symptoms"
	FieldDifficulty    = "difficulty_level"
	FieldEstimatedTime = "estimated_time_minutes"
	FieldSuccessRate   = "success_rate"
	FieldViewCount     = "view_count"
	FieldIsActive      = "is_active"
	FieldCreatedAt     = "created_at"
)

// Estimated resolution time bounds for an article, in minutes.
const (
	MinEstimatedTimeMinutes = 1
	MaxEstimatedTimeMinutes = 480
)

// Difficulty is the skill level an article's solution needs.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty returns the canonical difficulty for s, ignoring case and surrounding space.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	default:
		return "", false
	}
}

// Article is a helpdesk knowledge base article.
type Article struct {
	ID                   string     `json:"id" db:"id"`
	Title                string     `json:"title" db:"title"`
	Content              string     `json:"content" db:"content"`
	Category             string     `json:"category" db:"category"`
	Subcategory          string     `json:"subcategory,omitempty" db:"subcategory"`
	Difficulty           Difficulty `json:"difficulty_level,omitempty" db:"difficulty_level"`
	Keywords             []string   `json:"keywords,omitempty" db:"keywords"`
	Symptoms             []string   `json:"symptoms,omitempty" db:"symptoms"`
	EstimatedTimeMinutes *int       `json:"estimated_time_minutes,omitempty" db:"estimated_time_minutes"`
	SuccessRate          *float64   `json:"success_rate,omitempty" db:"success_rate"`
	ViewCount            int        `json:"view_count" db:"view_count"`
	IsActive             bool       `json:"is_active" db:"is_active"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// Document flattens the article into the field map stored in a search index.
// Optional fields that are unset are omitted.
func (a *Article) Document() map[string]interface{} {
	doc := map[string]interface{}{
		"id":             a.ID,
		FieldTitle:       a.Title,
		FieldContent:     a.Content,
		FieldCategory:    a.Category,
		FieldSubcategory: a.Subcategory,
		FieldKeywords:    nonNil(a.Keywords),
		FieldSymptoms:    nonNil(a.Symptoms),
		FieldViewCount:   a.ViewCount,
		FieldIsActive:    a.IsActive,
		FieldCreatedAt:   a.CreatedAt.Unix(),
	}
	if a.Difficulty != "" {
		doc[FieldDifficulty] = string(a.Difficulty)
	}
	if a.EstimatedTimeMinutes != nil {
		doc[FieldEstimatedTime] = *a.EstimatedTimeMinutes
	}
	if a.SuccessRate != nil {
		doc[FieldSuccessRate] = *a.SuccessRate
	}
	return doc
}

// ArticleFromSource rebuilds an article from engine source fields. Missing or
// mistyped fields are left at their zero value.
func ArticleFromSource(id string, src map[string]interface{}) *Article {
	a := &Article{ID: id}
	if v, ok := src["id"].(string); ok && id == "" {
		a.ID = v
	}
	a.Title = stringField(src, FieldTitle)
	a.Content = stringField(src, FieldContent)
	a.Category = stringField(src, FieldCategory)
	a.Subcategory = stringField(src, FieldSubcategory)
	if d, ok := ParseDifficulty(stringField(src, FieldDifficulty)); ok {
		a.Difficulty = d
	}
	a.Keywords = StringListField(src, FieldKeywords)
	a.Symptoms = StringListField(src, FieldSymptoms)
	if f, ok := NumberField(src, FieldEstimatedTime); ok {
		minutes := int(f)
		a.EstimatedTimeMinutes = &minutes
	}
	if f, ok := NumberField(src, FieldSuccessRate); ok {
		rate := f
		a.SuccessRate = &rate
	}
	if f, ok := NumberField(src, FieldViewCount); ok {
		a.ViewCount = int(f)
	}
	switch v := src[FieldIsActive].(type) {
	case bool:
		a.IsActive = v
	case string:
		a.IsActive, _ = strconv.ParseBool(v)
	}
	if f, ok := NumberField(src, FieldCreatedAt); ok && f > 0 {
		a.CreatedAt = time.Unix(int64(f), 0).UTC()
	}
	return a
}

// NumberField reads a numeric source field regardless of how the engine decoded it.
func NumberField(src map[string]interface{}, field string) (float64, bool) {
	switch v := src[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// StringListField reads a multi-valued string field. Single values become a one element list.
func StringListField(src map[string]interface{}, field string) []string {
	switch v := src[field].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func stringField(src map[string]interface{}, field string) string {
	switch v := src[field].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
