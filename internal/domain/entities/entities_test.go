package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDifficulty(t *testing.T) {
	d, ok := ParseDifficulty(" Easy ")
	assert.True(t, ok)
	assert.Equal(t, DifficultyEasy, d)

	_, ok = ParseDifficulty("expert")
	assert.False(t, ok)
}

func TestArticleFromSource_ToleratesMissingAndMixedTypes(t *testing.T) {
	a := ArticleFromSource("kb-1", map[string]interface{}{
		FieldTitle:         "Printer offline",
		FieldKeywords:      []interface{}{"printer", "offline"},
		FieldSymptoms:      "no output",
		FieldSuccessRate:   "0.85",
		FieldEstimatedTime: float64(15),
		FieldIsActive:      true,
	})

	assert.Equal(t, "kb-1", a.ID)
	assert.Equal(t, "Printer offline", a.Title)
	assert.Equal(t, []string{"printer", "offline"}, a.Keywords)
	assert.Equal(t, []string{"no output"}, a.Symptoms)
	if assert.NotNil(t, a.SuccessRate) {
		assert.InDelta(t, 0.85, *a.SuccessRate, 1e-9)
	}
	if assert.NotNil(t, a.EstimatedTimeMinutes) {
		assert.Equal(t, 15, *a.EstimatedTimeMinutes)
	}
	assert.Empty(t, a.Difficulty)
	assert.True(t, a.IsActive)
}

func TestArticleDocumentRoundTrip(t *testing.T) {
	minutes := 20
	rate := 0.9
	a := &Article{
		ID: "kb-2", Title: "Reset password", Category: "Accounts", Difficulty: DifficultyEasy,
		Keywords: []string{"password"}, EstimatedTimeMinutes: &minutes, SuccessRate: &rate, IsActive: true,
	}
	back := ArticleFromSource("kb-2", a.Document())
	assert.Equal(t, a.Title, back.Title)
	assert.Equal(t, a.Difficulty, back.Difficulty)
	assert.Equal(t, minutes, *back.EstimatedTimeMinutes)
	assert.Equal(t, rate, *back.SuccessRate)
}

func TestScoreModifiers(t *testing.T) {
	cfg := DefaultBoostConfig()
	q := multiplier([]ScoreModifier{
		{Field: FieldSuccessRate, Kind: ModifierLinear, Floor: cfg.SuccessRate.Floor, Factor: cfg.SuccessRate.Factor},
		{Field: FieldViewCount, Kind: ModifierLog1p, Factor: cfg.ViewCountFactor},
		{Field: FieldDifficulty, Kind: ModifierLookup, Lookup: cfg.Difficulty},
	})

	assert.Equal(t, 1.0, q(map[string]interface{}{}), "missing fields are neutral")
	assert.InDelta(t, 0.5, q(map[string]interface{}{FieldSuccessRate: 0.0}), 1e-9, "floor keeps score non-zero")
	assert.InDelta(t, 1.1, q(map[string]interface{}{FieldDifficulty: "easy"}), 1e-9)

	low := q(map[string]interface{}{FieldViewCount: 10})
	high := q(map[string]interface{}{FieldViewCount: 10000})
	assert.Greater(t, high, low)
	assert.Less(t, high-low, 1.0, "view count boost diminishes")
}

func multiplier(mods []ScoreModifier) func(map[string]interface{}) float64 {
	return func(src map[string]interface{}) float64 {
		m := 1.0
		for _, mod := range mods {
			m *= mod.Multiplier(src)
		}
		return m
	}
}

func TestFilterSetKeysAndParams(t *testing.T) {
	minutes := 30
	f := FilterSet{Category: "Network", MaxTimeMinutes: &minutes}
	assert.Equal(t, []string{FilterCategory, FilterMaxTimeMinutes}, f.Keys())
	assert.Equal(t, map[string]interface{}{"category": "Network", "max_time_minutes": 30}, f.Params())
	assert.True(t, FilterSet{}.IsEmpty())
}

func TestRangeBucketContains(t *testing.T) {
	b := DefaultBoostConfig().Facets[2].Ranges[0]
	assert.True(t, b.Contains(0))
	assert.True(t, b.Contains(14.9))
	assert.False(t, b.Contains(15))
}

func TestEntityOverlaps(t *testing.T) {
	a := Entity{Start: 0, End: 5}
	assert.True(t, a.Overlaps(Entity{Start: 4, End: 8}))
	assert.False(t, a.Overlaps(Entity{Start: 5, End: 8}))
}

func TestSearchEventCloneDoesNotAlias(t *testing.T) {
	e := &SearchEvent{FiltersUsed: []string{"category"}, Click: &ClickEvent{ArticleID: "a"}}
	c := e.Clone()
	c.FiltersUsed[0] = "difficulty"
	c.Click.ArticleID = "b"
	assert.Equal(t, "category", e.FiltersUsed[0])
	assert.Equal(t, "a", e.Click.ArticleID)
}
