package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typesense/typesense-go/v2/typesense/api"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

func float(v float64) *float64 { return &v }

func TestBuildSearchParams(t *testing.T) {
	eq := &entities.EngineQuery{
		Text: "printer offline",
		Match: []entities.MatchClause{
			{Field: "title", Boost: 3},
			{Field: "keywords", Boost: 2.5},
			{Field: "category", Boost: 1.5},
		},
		Fuzzy: []entities.FuzzyClause{
			{Field: "title", Fuzziness: entities.FuzzinessAuto},
			{Field: "keywords", Fuzziness: 1},
		},
		TermFilters:     []entities.TermFilter{{Field: "category", Value: "Hardware"}},
		RangeFilters:    []entities.RangeFilter{{Field: "estimated_time_minutes", Max: float(30)}, {Field: "success_rate", Min: float(0.8)}},
		ActiveOnly:      true,
		Aggregations:    []entities.AggregationRequest{{Name: "categories", Field: "category", Kind: entities.AggregationTerms, Size: 20}},
		HighlightFields: []string{"title", "content"},
		Size:            20,
		From:            40,
	}

	params := buildSearchParams(eq)

	assert.Equal(t, "printer offline", *params.Q)
	assert.Equal(t, "title,keywords,category", *params.QueryBy)
	assert.Equal(t, "127,106,64", *params.QueryByWeights)
	assert.Equal(t, "2,1,0", *params.NumTypos)
	assert.Equal(t, "is_active:=true && category:=`Hardware` && estimated_time_minutes:<=30 && success_rate:>=0.8", *params.FilterBy)
	assert.Equal(t, "category", *params.FacetBy)
	assert.Equal(t, 20, *params.MaxFacetValues)
	assert.Equal(t, "title,content", *params.HighlightFields)
	assert.Equal(t, 3, *params.Page)
	assert.Equal(t, 20, *params.PerPage)
}

func TestBuildSearchParams_Empty(t *testing.T) {
	params := buildSearchParams(&entities.EngineQuery{})

	assert.Equal(t, "*", *params.Q)
	assert.Equal(t, 1, *params.Page)
	assert.Equal(t, 10, *params.PerPage)
	assert.Nil(t, params.FilterBy)
	assert.Nil(t, params.FacetBy)
	assert.Nil(t, params.QueryByWeights)
}

func TestConvertSearchResult(t *testing.T) {
	raw := `{
		"found": 12,
		"search_time_ms": 4,
		"hits": [
			{
				"document": {"id": "kb-001", "title": "Printer offline", "category": "Hardware"},
				"text_match": 578730123365187705,
				"highlights": [
					{"field": "title", "snippet": "<mark>Printer</mark> offline"},
					{"field": "symptoms", "snippets": ["<mark>printer</mark> offline", "nothing prints"]}
				]
			},
			{"document": {"id": "kb-002", "title": "Clear a stuck print queue"}}
		],
		"facet_counts": [
			{"field_name": "category", "counts": [{"value": "Hardware", "count": 9}, {"value": "Software", "count": 3}]},
			{"field_name": "estimated_time_minutes", "counts": [{"value": "10", "count": 4}, {"value": "15", "count": 2}, {"value": "90", "count": 1}]}
		]
	}`
	var result api.SearchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	eq := &entities.EngineQuery{Aggregations: []entities.AggregationRequest{
		{Name: "categories", Field: "category", Kind: entities.AggregationTerms},
		{Name: "time_ranges", Field: "estimated_time_minutes", Kind: entities.AggregationRange, Ranges: []entities.RangeBucket{
			{Name: "0-15 min", Min: float(0), Max: float(15)},
			{Name: "15-30 min", Min: float(15), Max: float(30)},
			{Name: "30-60 min", Min: float(30), Max: float(60)},
			{Name: "60+ min", Min: float(60)},
		}},
	}}

	resp := convertSearchResult(&result, eq)

	assert.Equal(t, 12, resp.Total)
	require.Len(t, resp.Hits, 2)
	assert.Equal(t, "kb-001", resp.Hits[0].ID)
	assert.Greater(t, resp.Hits[0].Score, 0.0)
	assert.Equal(t, []string{"<mark>Printer</mark> offline"}, resp.Hits[0].Highlights["title"])
	assert.Len(t, resp.Hits[0].Highlights["symptoms"], 2)
	assert.Nil(t, resp.Hits[1].Highlights)

	assert.Equal(t, []entities.AggregationBucket{{Key: "Hardware", Count: 9}, {Key: "Software", Count: 3}}, resp.Aggregations["categories"])
	assert.Equal(t, []entities.AggregationBucket{
		{Key: "0-15 min", Count: 4},
		{Key: "15-30 min", Count: 2},
		{Key: "60+ min", Count: 1},
	}, resp.Aggregations["time_ranges"])
}

func TestConvertSearchResult_Nil(t *testing.T) {
	resp := convertSearchResult(nil, &entities.EngineQuery{})
	assert.Empty(t, resp.Hits)
	assert.Zero(t, resp.Total)
}

func TestSimilarityParams(t *testing.T) {
	params := similarityParams(entities.SimilarityRequest{
		Category:   "Network",
		ExcludeIDs: []string{"kb-7", "kb-8"},
		Limit:      3,
	})

	assert.Equal(t, "*", *params.Q)
	assert.Equal(t, "is_active:=true && category:=`Network` && id:!=[kb-7,kb-8]", *params.FilterBy)
	assert.Equal(t, "success_rate:desc", *params.SortBy)
	assert.Equal(t, 3, *params.PerPage)
}

func TestTypesenseWeight(t *testing.T) {
	assert.Equal(t, 127, typesenseWeight(3, 3))
	assert.Equal(t, 1, typesenseWeight(0.001, 3))
	assert.Equal(t, 1, typesenseWeight(1, 0))
}
