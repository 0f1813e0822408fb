package evaluation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// Searcher runs one search through the query pipeline.
type Searcher interface {
	Search(ctx context.Context, req services.SearchRequest) (*services.SearchResponse, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	searcher Searcher
	k        int
	now      func() time.Time
}

func NewRunner(searcher Searcher) *Runner {
	return &Runner{searcher: searcher, k: DefaultK, now: time.Now}
}

// Run searches every golden query in order. A failed search scores zero and
// counts towards the averages.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		K:            r.k,
		TotalQueries: len(queries),
		ByIntent:     make(map[entities.Intent]*IntentSummary),
		Results:      make([]EvalResult, 0, len(queries)),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.evaluate(ctx, gq)
		r.updateSummary(summary, result)
		summary.Results = append(summary.Results, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context, gq GoldenQuery) EvalResult {
	result := EvalResult{
		QueryID:        gq.ID,
		Query:          gq.Query,
		ExpectedIntent: gq.Intent,
		RetrievedIDs:   []string{},
	}

	start := r.now()
	resp, err := r.searcher.Search(ctx, services.SearchRequest{
		Text:     gq.Query,
		Filters:  gq.Filters,
		PageSize: r.k,
		Page:     1,
	})
	result.Latency = r.now().Sub(start)
	if err != nil {
		log.Warn().Err(err).Str("query_id", gq.ID).Msg("Golden query failed")
		result.Error = err.Error()
		return result
	}

	for _, res := range resp.Results {
		result.RetrievedIDs = append(result.RetrievedIDs, res.ArticleID)
	}
	if resp.Query != nil {
		result.DetectedIntent = resp.Query.Intent
	}
	result.IntentCorrect = result.DetectedIntent == gq.Intent
	result.ResultCount = resp.Total
	result.RecallAtK = RecallAtK(gq.ExpectedArticleIDs, result.RetrievedIDs, r.k)
	result.MRRAtK = MRRAtK(gq.ExpectedArticleIDs, result.RetrievedIDs, r.k)
	return result
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAtK += res.RecallAtK
	s.AvgMRRAtK += res.MRRAtK
	s.AvgLatency += res.Latency
	if res.Error != "" {
		s.FailedQueries++
	}
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}
	if res.IntentCorrect {
		s.IntentAccuracy++
	}

	is, ok := s.ByIntent[res.ExpectedIntent]
	if !ok {
		is = &IntentSummary{}
		s.ByIntent[res.ExpectedIntent] = is
	}
	is.Count++
	is.AvgRecallAtK += res.RecallAtK
	is.AvgMRRAtK += res.MRRAtK
	if res.IntentCorrect {
		is.Correct++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgRecallAtK /= n
		s.AvgMRRAtK /= n
		s.IntentAccuracy /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, is := range s.ByIntent {
		if is.Count > 0 {
			n := float64(is.Count)
			is.AvgRecallAtK /= n
			is.AvgMRRAtK /= n
			is.IntentAccuracy = float64(is.Correct) / n
		}
	}
}
