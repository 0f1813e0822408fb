package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

// highlightTag matches the markers engines put around matched terms.
var highlightTag = regexp.MustCompile(`(?i)<(mark|em|b)>(.*?)</(?:mark|em|b)>`)

// ResultProcessorConfig controls result enrichment.
type ResultProcessorConfig struct {
	// RelatedHits is how many top hits get related articles.
	RelatedHits int
	// RelatedPerHit caps the related ids attached to one hit.
	RelatedPerHit   int
	SnippetLength   int
	MaxSnippets     int
	HighlightFields []string
}

// DefaultResultProcessorConfig returns the built in enrichment settings.
func DefaultResultProcessorConfig() ResultProcessorConfig {
	cfg := entities.DefaultBoostConfig()
	return ResultProcessorConfig{
		RelatedHits:     3,
		RelatedPerHit:   3,
		SnippetLength:   cfg.SnippetLength,
		MaxSnippets:     cfg.MaxSnippets,
		HighlightFields: cfg.HighlightFields,
	}
}

// ResultProcessor turns ranked engine hits into presentable search results.
type ResultProcessor struct {
	similarity providers.SimilarityLookup
	cfg        ResultProcessorConfig
	onFailure  func(ctx context.Context)
}

// NewResultProcessor creates a result processor. similarity may be nil, in
// which case no related articles are attached.
func NewResultProcessor(similarity providers.SimilarityLookup, cfg ResultProcessorConfig) *ResultProcessor {
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = 200
	}
	if cfg.MaxSnippets <= 0 {
		cfg.MaxSnippets = 3
	}
	if cfg.RelatedPerHit <= 0 {
		cfg.RelatedPerHit = 3
	}
	return &ResultProcessor{similarity: similarity, cfg: cfg}
}

// OnRelatedFailure registers a hook run whenever a related lookup fails.
func (p *ResultProcessor) OnRelatedFailure(fn func(ctx context.Context)) {
	p.onFailure = fn
}

// Process builds one result per hit, in hit order, plus the facet summary.
func (p *ResultProcessor) Process(
	ctx context.Context,
	hits []ScoredHit,
	aggregations map[string][]entities.AggregationBucket,
	requested []entities.AggregationRequest,
	q *entities.SearchQuery,
) ([]entities.SearchResult, entities.FacetSummary) {
	results := make([]entities.SearchResult, len(hits))
	matcher := termMatcher(q)

	pageIDs := make([]string, len(hits))
	for i, h := range hits {
		pageIDs[i] = h.Hit.ID
	}

	for i, h := range hits {
		article := entities.ArticleFromSource(h.Hit.ID, h.Hit.Source)
		snippets, matched := p.snippets(h.Hit, article, matcher)
		results[i] = entities.SearchResult{
			ArticleID:         h.Hit.ID,
			Title:             article.Title,
			Score:             h.Score,
			Snippets:          snippets,
			MatchedTerms:      matched,
			RelatedArticleIDs: []string{},
			Article:           article,
		}
	}

	p.attachRelated(ctx, results, pageIDs)
	return results, summarizeFacets(aggregations, requested)
}

func (p *ResultProcessor) attachRelated(ctx context.Context, results []entities.SearchResult, pageIDs []string) {
	if p.similarity == nil || p.cfg.RelatedHits <= 0 {
		return
	}
	k := p.cfg.RelatedHits
	if k > len(results) {
		k = len(results)
	}

	exclude := make(map[string]struct{}, len(pageIDs))
	for _, id := range pageIDs {
		exclude[id] = struct{}{}
	}

	related := make([][]string, k)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < k; i++ {
		i := i
		g.Go(func() error {
			a := results[i].Article
			ids, err := p.similarity.FindSimilar(gctx, entities.SimilarityRequest{
				Category:   a.Category,
				Keywords:   similarityKeywords(a),
				ExcludeIDs: append([]string(nil), pageIDs...),
				Limit:      p.cfg.RelatedPerHit,
			})
			if err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).
					Str("article_id", a.ID).
					Msg("Related article lookup failed")
				if p.onFailure != nil {
					p.onFailure(ctx)
				}
				return nil
			}
			related[i] = filterRelated(ids, a.ID, exclude, p.cfg.RelatedPerHit)
			return nil
		})
	}
	_ = g.Wait()

	for i := 0; i < k; i++ {
		if related[i] != nil {
			results[i].RelatedArticleIDs = related[i]
		}
	}
}

// filterRelated drops the article itself, everything on the page and
// duplicates, then caps the list.
func filterRelated(ids []string, self string, exclude map[string]struct{}, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" || id == self {
			continue
		}
		if _, ok := exclude[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// similarityKeywords uses the article's first keywords, or its title words when it has none.
func similarityKeywords(a *entities.Article) []string {
	const maxKeywords = 5
	var words []string
	if len(a.Keywords) > 0 {
		words = a.Keywords
	} else {
		for _, w := range utils.Tokenize(a.Title) {
			if !utils.IsStopWord(w) {
				words = append(words, w)
			}
		}
	}
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return append([]string(nil), words...)
}

func (p *ResultProcessor) snippets(hit entities.EngineHit, a *entities.Article, matcher *regexp.Regexp) ([]entities.Snippet, []string) {
	var out []entities.Snippet
	matched := newTermSet()

	for _, field := range p.cfg.HighlightFields {
		for _, fragment := range hit.Highlights[field] {
			if len(out) == p.cfg.MaxSnippets {
				break
			}
			s, terms := parseHighlight(field, fragment)
			if s.Text == "" {
				continue
			}
			out = append(out, s)
			matched.add(terms...)
		}
	}
	if len(out) > 0 {
		return out, matched.list()
	}

	if a.Content == "" {
		return []entities.Snippet{}, matched.list()
	}
	s := windowSnippet(a.Content, matcher, p.cfg.SnippetLength)
	for _, m := range s.Matches {
		matched.add(strings.ToLower(s.Text[m.Start:m.End]))
	}
	return []entities.Snippet{s}, matched.list()
}

// parseHighlight strips highlight markers and records where they were.
func parseHighlight(field, fragment string) (entities.Snippet, []string) {
	var b strings.Builder
	var spans []entities.Span
	var terms []string
	last := 0
	for _, loc := range highlightTag.FindAllStringSubmatchIndex(fragment, -1) {
		b.WriteString(fragment[last:loc[0]])
		term := fragment[loc[4]:loc[5]]
		start := b.Len()
		b.WriteString(term)
		if term != "" {
			spans = append(spans, entities.Span{Start: start, End: b.Len()})
			terms = append(terms, strings.ToLower(term))
		}
		last = loc[1]
	}
	b.WriteString(fragment[last:])
	return entities.Snippet{Field: field, Text: b.String(), Matches: spans}, terms
}

// termMatcher matches any non stop word query or expanded term, case-insensitively.
func termMatcher(q *entities.SearchQuery) *regexp.Regexp {
	var parts []string
	seen := make(map[string]struct{})
	add := func(term string) {
		if term == "" || utils.IsStopWord(term) {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		parts = append(parts, regexp.QuoteMeta(term))
	}
	for _, t := range q.Terms() {
		add(t)
	}
	for _, t := range q.ExpandedTerms {
		add(t)
	}
	if len(parts) == 0 {
		return nil
	}
	// Longer alternatives first so "printing" wins over "print".
	sort.SliceStable(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// windowSnippet cuts a window of at most length runes centred on the first
// term match, or the leading window when nothing matches.
func windowSnippet(content string, matcher *regexp.Regexp, length int) entities.Snippet {
	runes := []rune(content)
	start := 0
	if matcher != nil {
		if loc := matcher.FindStringIndex(content); loc != nil {
			matchStart := utf8.RuneCountInString(content[:loc[0]])
			matchLen := utf8.RuneCountInString(content[loc[0]:loc[1]])
			start = matchStart - (length-matchLen)/2
		}
	}
	if start+length > len(runes) {
		start = len(runes) - length
	}
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}

	text := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		text = "..." + text
	}
	if end < len(runes) {
		text += "..."
	}

	var spans []entities.Span
	if matcher != nil {
		for _, loc := range matcher.FindAllStringIndex(text, -1) {
			spans = append(spans, entities.Span{Start: loc[0], End: loc[1]})
		}
	}
	return entities.Snippet{Field: entities.FieldContent, Text: text, Matches: spans}
}

func summarizeFacets(aggregations map[string][]entities.AggregationBucket, requested []entities.AggregationRequest) entities.FacetSummary {
	summary := entities.FacetSummary{Groups: make([]entities.FacetGroup, 0, len(requested))}
	for _, agg := range requested {
		buckets := aggregations[agg.Name]
		values := make([]entities.FacetValue, 0, len(buckets))
		for _, b := range buckets {
			values = append(values, entities.FacetValue{Value: b.Key, Count: b.Count})
		}
		sort.SliceStable(values, func(i, j int) bool {
			if values[i].Count != values[j].Count {
				return values[i].Count > values[j].Count
			}
			return values[i].Value < values[j].Value
		})
		if agg.Size > 0 && len(values) > agg.Size {
			values = values[:agg.Size]
		}
		summary.Groups = append(summary.Groups, entities.FacetGroup{Name: agg.Name, Field: agg.Field, Values: values})
	}
	return summary
}

type termSet struct {
	seen  map[string]struct{}
	terms []string
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]struct{})}
}

func (s *termSet) add(terms ...string) {
	for _, t := range terms {
		if _, ok := s.seen[t]; ok || t == "" {
			continue
		}
		s.seen[t] = struct{}{}
		s.terms = append(s.terms, t)
	}
}

func (s *termSet) list() []string {
	if s.terms == nil {
		return []string{}
	}
	return s.terms
}
