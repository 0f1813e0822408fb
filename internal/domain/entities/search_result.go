package entities

// Span marks a matched term inside a snippet, as byte offsets into Snippet.Text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Snippet is a short excerpt of an article with its matched terms marked.
type Snippet struct {
	Field   string `json:"field"`
	Text    string `json:"text"`
	Matches []Span `json:"matches,omitempty"`
}

// SearchResult is an engine hit enriched for presentation. Score is only
// comparable with other results of the same search.
type SearchResult struct {
	ArticleID         string    `json:"article_id"`
	Title             string    `json:"title"`
	Score             float64   `json:"score"`
	Snippets          []Snippet `json:"snippets"`
	MatchedTerms      []string  `json:"matched_terms"`
	RelatedArticleIDs []string  `json:"related_article_ids"`
	Article           *Article  `json:"article"`
}

// FacetValue is one value of a facet with its count.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetGroup holds the values of one aggregation, ordered by count
// descending then value ascending.
type FacetGroup struct {
	Name   string       `json:"name"`
	Field  string       `json:"field"`
	Values []FacetValue `json:"values"`
}

// FacetSummary lists facet groups in the order they were requested.
type FacetSummary struct {
	Groups []FacetGroup `json:"groups"`
}

// Group returns the facet group with the given aggregation name, or nil.
func (s *FacetSummary) Group(name string) *FacetGroup {
	for i := range s.Groups {
		if s.Groups[i].Name == name {
			return &s.Groups[i]
		}
	}
	return nil
}
