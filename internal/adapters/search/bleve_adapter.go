package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/mapping"
	"github.com/blevesearch/bleve/search/query"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

// exactSuffix names the untokenized copy of a keyword field used for filters and facets.
const exactSuffix = "_exact"

// BleveAdapter is an in-process article index backed by a memory-only bleve index.
type BleveAdapter struct {
	index bleve.Index

	mu   sync.RWMutex
	docs map[string]map[string]interface{}
}

var (
	_ providers.SearchEngine       = (*BleveAdapter)(nil)
	_ providers.SimilarityLookup   = (*BleveAdapter)(nil)
	_ providers.SuggestionProvider = (*BleveAdapter)(nil)
	_ providers.ArticleIndexer     = (*BleveAdapter)(nil)
)

// NewBleveAdapter creates an empty in-memory index.
func NewBleveAdapter() (*BleveAdapter, error) {
	index, err := bleve.NewMemOnly(articleMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &BleveAdapter{index: index, docs: make(map[string]map[string]interface{})}, nil
}

func articleMapping() mapping.IndexMapping {
	text := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		return fm
	}
	exact := func(name string) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Name = name
		fm.IncludeTermVectors = false
		return fm
	}

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	for _, field := range []string{entities.FieldTitle, entities.FieldContent, entities.FieldKeywords, entities.FieldSymptoms} {
		doc.AddFieldMappingsAt(field, text())
	}
	for _, field := range []string{entities.FieldCategory, entities.FieldSubcategory} {
		doc.AddFieldMappingsAt(field, text(), exact(field+exactSuffix))
	}
	doc.AddFieldMappingsAt(entities.FieldDifficulty, exact(entities.FieldDifficulty))
	for _, field := range []string{entities.FieldEstimatedTime, entities.FieldSuccessRate, entities.FieldViewCount, entities.FieldCreatedAt} {
		doc.AddFieldMappingsAt(field, bleve.NewNumericFieldMapping())
	}
	doc.AddFieldMappingsAt(entities.FieldIsActive, bleve.NewBooleanFieldMapping())

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

// exactField maps an article field to the index field holding its untokenized value.
func exactField(field string) string {
	switch field {
	case entities.FieldCategory, entities.FieldSubcategory:
		return field + exactSuffix
	default:
		return field
	}
}

// IndexArticles upserts articles in one batch.
func (a *BleveAdapter) IndexArticles(ctx context.Context, articles []*entities.Article) error {
	if len(articles) == 0 {
		return nil
	}
	batch := a.index.NewBatch()
	docs := make(map[string]map[string]interface{}, len(articles))
	for _, article := range articles {
		if article == nil || article.ID == "" {
			continue
		}
		doc := article.Document()
		if err := batch.Index(article.ID, doc); err != nil {
			return fmt.Errorf("failed to index article %s: %w", article.ID, err)
		}
		docs[article.ID] = doc
	}
	if err := a.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index articles: %w", err)
	}

	a.mu.Lock()
	for id, doc := range docs {
		a.docs[id] = doc
	}
	a.mu.Unlock()
	return nil
}

// Search executes an engine query.
func (a *BleveAdapter) Search(ctx context.Context, eq *entities.EngineQuery) (*entities.EngineResponse, error) {
	req := bleve.NewSearchRequestOptions(buildBleveQuery(eq), eq.Size, eq.From, false)
	if len(eq.HighlightFields) > 0 {
		req.Highlight = bleve.NewHighlightWithStyle("html")
		req.Highlight.Fields = append([]string(nil), eq.HighlightFields...)
	}
	for _, agg := range eq.Aggregations {
		switch agg.Kind {
		case entities.AggregationRange:
			fr := bleve.NewFacetRequest(agg.Field, len(agg.Ranges))
			for _, r := range agg.Ranges {
				fr.AddNumericRange(r.Name, r.Min, r.Max)
			}
			req.AddFacet(agg.Name, fr)
		default:
			req.AddFacet(agg.Name, bleve.NewFacetRequest(exactField(agg.Field), agg.Size))
		}
	}

	res, err := a.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	resp := &entities.EngineResponse{
		Hits:         make([]entities.EngineHit, 0, len(res.Hits)),
		Aggregations: make(map[string][]entities.AggregationBucket, len(res.Facets)),
		Total:        int(res.Total),
		Took:         res.Took,
	}
	for _, h := range res.Hits {
		hit := entities.EngineHit{ID: h.ID, Score: h.Score, Source: a.source(h.ID)}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string][]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				hit.Highlights[field] = append([]string(nil), fragments...)
			}
		}
		resp.Hits = append(resp.Hits, hit)
	}
	for name, facet := range res.Facets {
		var buckets []entities.AggregationBucket
		for _, t := range facet.Terms {
			buckets = append(buckets, entities.AggregationBucket{Key: t.Term, Count: t.Count})
		}
		for _, r := range facet.NumericRanges {
			buckets = append(buckets, entities.AggregationBucket{Key: r.Name, Count: r.Count})
		}
		resp.Aggregations[name] = buckets
	}
	return resp, nil
}

func (a *BleveAdapter) source(id string) map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	doc := a.docs[id]
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func buildBleveQuery(eq *entities.EngineQuery) query.Query {
	var should []query.Query
	terms := queryTerms(eq.Text)

	if eq.Text != "" {
		for _, m := range eq.Match {
			mq := bleve.NewMatchQuery(eq.Text)
			mq.SetField(m.Field)
			mq.SetBoost(m.Boost)
			should = append(should, mq)
		}
		for _, f := range eq.Fuzzy {
			for _, term := range terms {
				fuzziness := f.Fuzziness
				if fuzziness == entities.FuzzinessAuto {
					fuzziness = entities.AutoFuzziness(term)
				}
				if fuzziness <= 0 {
					continue
				}
				if fuzziness > 2 {
					fuzziness = 2
				}
				fq := bleve.NewFuzzyQuery(term)
				fq.SetField(f.Field)
				fq.SetFuzziness(fuzziness)
				fq.SetBoost(f.Boost)
				should = append(should, fq)
			}
		}
	}
	if x := eq.Expansion; x != nil {
		for _, term := range x.Terms {
			for _, field := range x.Fields {
				var q query.Query
				if strings.Contains(term, " ") {
					pq := bleve.NewMatchPhraseQuery(term)
					pq.SetField(field)
					pq.SetBoost(x.Boost)
					q = pq
				} else {
					mq := bleve.NewMatchQuery(term)
					mq.SetField(field)
					mq.SetBoost(x.Boost)
					q = mq
				}
				should = append(should, q)
			}
		}
	}

	var must []query.Query
	if len(should) > 0 {
		must = append(must, bleve.NewDisjunctionQuery(should...))
	} else {
		must = append(must, bleve.NewMatchNoneQuery())
	}
	must = append(must, filterQueries(eq.TermFilters, eq.RangeFilters, eq.ActiveOnly)...)
	return bleve.NewConjunctionQuery(must...)
}

func filterQueries(terms []entities.TermFilter, ranges []entities.RangeFilter, activeOnly bool) []query.Query {
	var out []query.Query
	for _, f := range terms {
		tq := bleve.NewTermQuery(f.Value)
		tq.SetField(exactField(f.Field))
		out = append(out, tq)
	}
	inclusive := true
	for _, r := range ranges {
		rq := bleve.NewNumericRangeInclusiveQuery(r.Min, r.Max, &inclusive, &inclusive)
		rq.SetField(r.Field)
		out = append(out, rq)
	}
	if activeOnly {
		bq := bleve.NewBoolFieldQuery(true)
		bq.SetField(entities.FieldIsActive)
		out = append(out, bq)
	}
	return out
}

// queryTerms returns the distinct non stop word tokens of the query text.
func queryTerms(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range utils.Tokenize(text) {
		if utils.IsStopWord(t) {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FindSimilar returns active articles of the same category, best success rate
// first, preferring shared keywords.
func (a *BleveAdapter) FindSimilar(ctx context.Context, req entities.SimilarityRequest) ([]string, error) {
	if req.Category == "" || req.Limit <= 0 {
		return []string{}, nil
	}

	category := bleve.NewTermQuery(req.Category)
	category.SetField(exactField(entities.FieldCategory))
	active := bleve.NewBoolFieldQuery(true)
	active.SetField(entities.FieldIsActive)

	var should []query.Query
	for _, kw := range req.Keywords {
		mq := bleve.NewMatchQuery(kw)
		mq.SetField(entities.FieldKeywords)
		should = append(should, mq)
	}
	var mustNot []query.Query
	if len(req.ExcludeIDs) > 0 {
		mustNot = append(mustNot, bleve.NewDocIDQuery(req.ExcludeIDs))
	}

	q := query.NewBooleanQuery([]query.Query{category, active}, should, mustNot)
	sr := bleve.NewSearchRequestOptions(q, req.Limit, 0, false)
	sr.SortBy([]string{"-" + entities.FieldSuccessRate, "-_score", "_id"})

	res, err := a.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("bleve similarity search failed: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// SuggestTitles completes the last word of prefix against active article titles.
func (a *BleveAdapter) SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error) {
	words := utils.Tokenize(prefix)
	if len(words) == 0 || limit <= 0 {
		return []string{}, nil
	}

	last := bleve.NewPrefixQuery(words[len(words)-1])
	last.SetField(entities.FieldTitle)
	must := []query.Query{last}
	if len(words) > 1 {
		rest := bleve.NewMatchQuery(strings.Join(words[:len(words)-1], " "))
		rest.SetField(entities.FieldTitle)
		rest.SetOperator(query.MatchQueryOperatorAnd)
		must = append(must, rest)
	}
	active := bleve.NewBoolFieldQuery(true)
	active.SetField(entities.FieldIsActive)
	must = append(must, active)

	res, err := a.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(must...), limit*2, 0, false))
	if err != nil {
		return nil, fmt.Errorf("bleve suggestion search failed: %w", err)
	}

	titles := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, h := range res.Hits {
		title, _ := a.source(h.ID)[entities.FieldTitle].(string)
		key := strings.ToLower(title)
		if title == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, title)
	}
	// Titles that literally start with the prefix come first.
	lower := strings.ToLower(strings.Join(words, " "))
	sort.SliceStable(titles, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(titles[i]), lower)
		pj := strings.HasPrefix(strings.ToLower(titles[j]), lower)
		return pi && !pj
	})
	if len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

// DocCount returns the number of indexed articles.
func (a *BleveAdapter) DocCount() (uint64, error) {
	return a.index.DocCount()
}

// Close releases the index.
func (a *BleveAdapter) Close() error {
	return a.index.Close()
}
