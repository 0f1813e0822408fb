package search

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	tsclient "github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
)

// maxTypesenseWeight is the largest query_by_weights value Typesense accepts.
const maxTypesenseWeight = 127

// TypesenseAdapter runs article searches against a Typesense collection
type TypesenseAdapter struct {
	client *tsclient.Client
}

var (
	_ providers.SearchEngine       = (*TypesenseAdapter)(nil)
	_ providers.SimilarityLookup   = (*TypesenseAdapter)(nil)
	_ providers.SuggestionProvider = (*TypesenseAdapter)(nil)
	_ providers.ArticleIndexer     = (*TypesenseAdapter)(nil)
)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// IndexArticles upserts articles one document at a time
func (a *TypesenseAdapter) IndexArticles(ctx context.Context, articles []*entities.Article) error {
	for _, article := range articles {
		if article == nil {
			continue
		}
		if err := a.client.UpsertDocument(ctx, article.Document()); err != nil {
			return fmt.Errorf("failed to index article %s: %w", article.ID, err)
		}
	}
	return nil
}

// Search executes an engine query
func (a *TypesenseAdapter) Search(ctx context.Context, eq *entities.EngineQuery) (*entities.EngineResponse, error) {
	ctx, span := observability.StartSpan(ctx, "TypesenseAdapter.Search")
	defer span.End()

	result, err := a.client.Client().Collection(a.client.Collection()).Documents().Search(ctx, buildSearchParams(eq))
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	return convertSearchResult(result, eq), nil
}

// buildSearchParams maps an engine query onto Typesense search parameters.
// Match clauses become weighted query_by fields and fuzzy clauses set the
// per field typo budget.
func buildSearchParams(eq *entities.EngineQuery) *api.SearchCollectionParams {
	typos := make(map[string]int, len(eq.Fuzzy))
	for _, f := range eq.Fuzzy {
		n := f.Fuzziness
		if n == entities.FuzzinessAuto || n > 2 {
			n = 2
		}
		typos[f.Field] = n
	}

	maxBoost := 0.0
	for _, m := range eq.Match {
		maxBoost = math.Max(maxBoost, m.Boost)
	}

	var fields, weights, numTypos []string
	for _, m := range eq.Match {
		fields = append(fields, m.Field)
		weights = append(weights, strconv.Itoa(typesenseWeight(m.Boost, maxBoost)))
		numTypos = append(numTypos, strconv.Itoa(typos[m.Field]))
	}

	q := eq.Text
	if q == "" {
		q = "*"
	}
	size := eq.Size
	if size <= 0 {
		size = 10
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(strings.Join(fields, ",")),
		Page:    pointer.Int(eq.From/size + 1),
		PerPage: pointer.Int(size),
	}
	if len(weights) > 0 {
		params.QueryByWeights = pointer.String(strings.Join(weights, ","))
		params.NumTypos = pointer.String(strings.Join(numTypos, ","))
	}
	if filter := typesenseFilter(eq.TermFilters, eq.RangeFilters, eq.ActiveOnly); filter != "" {
		params.FilterBy = pointer.String(filter)
	}
	if facetFields, maxValues := typesenseFacets(eq.Aggregations); len(facetFields) > 0 {
		params.FacetBy = pointer.String(strings.Join(facetFields, ","))
		params.MaxFacetValues = pointer.Int(maxValues)
	}
	if len(eq.HighlightFields) > 0 {
		params.HighlightFields = pointer.String(strings.Join(eq.HighlightFields, ","))
	}
	return params
}

// typesenseWeight scales a boost onto the 1..127 integer weight range.
func typesenseWeight(boost, maxBoost float64) int {
	if maxBoost <= 0 {
		return 1
	}
	w := int(math.Round(boost / maxBoost * maxTypesenseWeight))
	if w < 1 {
		return 1
	}
	return w
}

func typesenseFilter(terms []entities.TermFilter, ranges []entities.RangeFilter, activeOnly bool) string {
	var clauses []string
	if activeOnly {
		clauses = append(clauses, entities.FieldIsActive+":=true")
	}
	for _, f := range terms {
		clauses = append(clauses, fmt.Sprintf("%s:=`%s`", f.Field, strings.ReplaceAll(f.Value, "`", "")))
	}
	for _, r := range ranges {
		if r.Min != nil {
			clauses = append(clauses, fmt.Sprintf("%s:>=%s", r.Field, formatNumber(*r.Min)))
		}
		if r.Max != nil {
			clauses = append(clauses, fmt.Sprintf("%s:<=%s", r.Field, formatNumber(*r.Max)))
		}
	}
	return strings.Join(clauses, " && ")
}

// typesenseFacets lists the fields to facet on. Range aggregations facet on
// the raw numeric values, which are bucketed after the search.
func typesenseFacets(aggs []entities.AggregationRequest) ([]string, int) {
	var fields []string
	seen := make(map[string]struct{})
	maxValues := 10
	for _, agg := range aggs {
		if _, ok := seen[agg.Field]; !ok {
			seen[agg.Field] = struct{}{}
			fields = append(fields, agg.Field)
		}
		size := agg.Size
		if agg.Kind == entities.AggregationRange {
			size = 100
		}
		if size > maxValues {
			maxValues = size
		}
	}
	return fields, maxValues
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func convertSearchResult(result *api.SearchResult, eq *entities.EngineQuery) *entities.EngineResponse {
	resp := &entities.EngineResponse{
		Hits:         []entities.EngineHit{},
		Aggregations: make(map[string][]entities.AggregationBucket),
	}
	if result == nil {
		return resp
	}
	if result.Found != nil {
		resp.Total = *result.Found
	}
	if result.SearchTimeMs != nil {
		resp.Took = time.Duration(*result.SearchTimeMs) * time.Millisecond
	}

	if result.Hits != nil {
		for _, h := range *result.Hits {
			if h.Document == nil {
				continue
			}
			doc := *h.Document
			id, _ := doc["id"].(string)
			hit := entities.EngineHit{ID: id, Source: doc}
			if h.TextMatch != nil {
				hit.Score = float64(*h.TextMatch)
			}
			if h.Highlights != nil {
				hit.Highlights = make(map[string][]string)
				for _, hl := range *h.Highlights {
					if hl.Field == nil {
						continue
					}
					switch {
					case hl.Snippets != nil:
						hit.Highlights[*hl.Field] = append(hit.Highlights[*hl.Field], *hl.Snippets...)
					case hl.Snippet != nil:
						hit.Highlights[*hl.Field] = append(hit.Highlights[*hl.Field], *hl.Snippet)
					}
				}
			}
			resp.Hits = append(resp.Hits, hit)
		}
	}

	counts := make(map[string][]entities.AggregationBucket)
	if result.FacetCounts != nil {
		for _, fc := range *result.FacetCounts {
			if fc.FieldName == nil || fc.Counts == nil {
				continue
			}
			for _, c := range *fc.Counts {
				if c.Value == nil || c.Count == nil {
					continue
				}
				counts[*fc.FieldName] = append(counts[*fc.FieldName], entities.AggregationBucket{Key: *c.Value, Count: *c.Count})
			}
		}
	}
	for _, agg := range eq.Aggregations {
		if agg.Kind == entities.AggregationRange {
			resp.Aggregations[agg.Name] = bucketRanges(counts[agg.Field], agg.Ranges)
			continue
		}
		resp.Aggregations[agg.Name] = counts[agg.Field]
	}
	return resp
}

// bucketRanges folds numeric facet values into named ranges.
func bucketRanges(values []entities.AggregationBucket, ranges []entities.RangeBucket) []entities.AggregationBucket {
	out := make([]entities.AggregationBucket, 0, len(ranges))
	for _, r := range ranges {
		total := 0
		for _, v := range values {
			f, err := strconv.ParseFloat(v.Key, 64)
			if err != nil {
				continue
			}
			if r.Contains(f) {
				total += v.Count
			}
		}
		if total > 0 {
			out = append(out, entities.AggregationBucket{Key: r.Name, Count: total})
		}
	}
	return out
}

// FindSimilar returns active articles of the same category, best success rate first
func (a *TypesenseAdapter) FindSimilar(ctx context.Context, req entities.SimilarityRequest) ([]string, error) {
	if req.Category == "" || req.Limit <= 0 {
		return []string{}, nil
	}
	params := similarityParams(req)
	result, err := a.client.Client().Collection(a.client.Collection()).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar articles: %w", err)
	}

	ids := []string{}
	if result.Hits != nil {
		for _, h := range *result.Hits {
			if h.Document == nil {
				continue
			}
			if id, ok := (*h.Document)["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func similarityParams(req entities.SimilarityRequest) *api.SearchCollectionParams {
	filter := typesenseFilter([]entities.TermFilter{{Field: entities.FieldCategory, Value: req.Category}}, nil, true)
	if len(req.ExcludeIDs) > 0 {
		filter += " && id:!=[" + strings.Join(req.ExcludeIDs, ",") + "]"
	}
	return &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String(entities.FieldKeywords + "," + entities.FieldTitle),
		FilterBy: pointer.String(filter),
		SortBy:   pointer.String(entities.FieldSuccessRate + ":desc"),
		PerPage:  pointer.Int(req.Limit),
	}
}

// SuggestTitles completes prefix against active article titles
func (a *TypesenseAdapter) SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit <= 0 {
		return []string{}, nil
	}
	params := &api.SearchCollectionParams{
		Q:        pointer.String(prefix),
		QueryBy:  pointer.String(entities.FieldTitle),
		FilterBy: pointer.String(entities.FieldIsActive + ":=true"),
		PerPage:  pointer.Int(limit),
	}
	result, err := a.client.Client().Collection(a.client.Collection()).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest titles: %w", err)
	}

	titles := []string{}
	if result.Hits != nil {
		for _, h := range *result.Hits {
			if h.Document == nil {
				continue
			}
			if title, ok := (*h.Document)[entities.FieldTitle].(string); ok && title != "" {
				titles = append(titles, title)
			}
		}
	}
	return titles, nil
}
