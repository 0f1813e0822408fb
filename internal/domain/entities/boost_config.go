package entities

// FieldWeight configures how one article field takes part in matching.
type FieldWeight struct {
	Field string  `yaml:"field" json:"field"`
	Boost float64 `yaml:"boost" json:"boost"`
	// Fuzziness is "auto", "0", "1" or "2". Empty disables the fuzzy clause.
	Fuzziness     string `yaml:"fuzziness,omitempty" json:"fuzziness,omitempty"`
	MaxExpansions int    `yaml:"max_expansions,omitempty" json:"max_expansions,omitempty"`
}

// LinearBoost is a Floor + Factor*value multiplier.
type LinearBoost struct {
	Floor  float64 `yaml:"floor" json:"floor"`
	Factor float64 `yaml:"factor" json:"factor"`
}

// FacetConfig configures one aggregation.
type FacetConfig struct {
	Name   string          `yaml:"name" json:"name"`
	Field  string          `yaml:"field" json:"field"`
	Kind   AggregationKind `yaml:"kind" json:"kind"`
	Size   int             `yaml:"size" json:"size"`
	Ranges []RangeBucket   `yaml:"ranges,omitempty" json:"ranges,omitempty"`
}

// BoostConfig holds the ranking knobs the query builder reads.
type BoostConfig struct {
	Fields          []FieldWeight      `yaml:"fields" json:"fields"`
	ExpansionBoost  float64            `yaml:"expansion_boost" json:"expansion_boost"`
	ExpansionFields []string           `yaml:"expansion_fields" json:"expansion_fields"`
	FuzzyBoostRatio float64            `yaml:"fuzzy_boost_ratio" json:"fuzzy_boost_ratio"`
	SuccessRate     LinearBoost        `yaml:"success_rate" json:"success_rate"`
	ViewCountFactor float64            `yaml:"view_count_factor" json:"view_count_factor"`
	Difficulty      map[string]float64 `yaml:"difficulty" json:"difficulty"`
	Facets          []FacetConfig      `yaml:"facets" json:"facets"`
	MaxFacetSize    int                `yaml:"max_facet_size" json:"max_facet_size"`
	HighlightFields []string           `yaml:"highlight_fields" json:"highlight_fields"`
	SnippetLength   int                `yaml:"snippet_length" json:"snippet_length"`
	MaxSnippets     int                `yaml:"max_snippets" json:"max_snippets"`
}

// FieldBoost returns the configured boost for field, or 0.
func (c *BoostConfig) FieldBoost(field string) float64 {
	for _, f := range c.Fields {
		if f.Field == field {
			return f.Boost
		}
	}
	return 0
}

func bound(v float64) *float64 { return &v }

// DefaultBoostConfig returns the built in ranking configuration.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		Fields: []FieldWeight{
			{Field: FieldTitle, Boost: 3.0, Fuzziness: "auto", MaxExpansions: 50},
			{Field: FieldKeywords, Boost: 2.5, Fuzziness: "1", MaxExpansions: 20},
			{Field: FieldSymptoms, Boost: 2.0, Fuzziness: "1", MaxExpansions: 20},
			{Field: FieldCategory, Boost: 1.5},
			{Field: FieldSubcategory, Boost: 1.3},
			{Field: FieldContent, Boost: 1.0, Fuzziness: "auto", MaxExpansions: 100},
		},
		ExpansionBoost:  0.5,
		ExpansionFields: []string{FieldTitle, FieldContent, FieldKeywords},
		FuzzyBoostRatio: 0.5,
		SuccessRate:     LinearBoost{Floor: 0.5, Factor: 1.0},
		ViewCountFactor: 0.1,
		Difficulty: map[string]float64{
			string(DifficultyEasy):   1.1,
			string(DifficultyMedium): 1.0,
			string(DifficultyHard):   0.9,
		},
		Facets: []FacetConfig{
			{Name: "categories", Field: FieldCategory, Kind: AggregationTerms, Size: 20},
			{Name: "difficulties", Field: FieldDifficulty, Kind: AggregationTerms, Size: 5},
			{Name: "time_ranges", Field: FieldEstimatedTime, Kind: AggregationRange, Size: 4, Ranges: []RangeBucket{
				{Name: "0-15 min", Min: bound(0), Max: bound(15)},
				{Name: "15-30 min", Min: bound(15), Max: bound(30)},
				{Name: "30-60 min", Min: bound(30), Max: bound(60)},
				{Name: "60+ min", Min: bound(60)},
			}},
			{Name: "success_ranges", Field: FieldSuccessRate, Kind: AggregationRange, Size: 3, Ranges: []RangeBucket{
				{Name: "Low (0-70%)", Min: bound(0), Max: bound(0.7)},
				{Name: "Medium (70-90%)", Min: bound(0.7), Max: bound(0.9)},
				{Name: "High (90-100%)", Min: bound(0.9), Max: bound(1.0000001)},
			}},
		},
		MaxFacetSize:    100,
		HighlightFields: []string{FieldTitle, FieldContent, FieldSymptoms},
		SnippetLength:   200,
		MaxSnippets:     3,
	}
}
