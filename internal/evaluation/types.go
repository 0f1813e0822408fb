package evaluation

import (
	"time"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// DefaultK is the cut off used for Recall@K and MRR@K.
const DefaultK = 10

// GoldenQuery represents a labeled test query with expected outcomes.
type GoldenQuery struct {
	ID                 string                 `json:"id"`
	Query              string                 `json:"query"`
	Intent             entities.Intent        `json:"intent"`
	ExpectedArticleIDs []string               `json:"expected_article_ids"`
	Filters            map[string]interface{} `json:"filters,omitempty"`
	Difficulty         string                 `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID        string          `json:"query_id"`
	Query          string          `json:"query"`
	ExpectedIntent entities.Intent `json:"expected_intent"`
	DetectedIntent entities.Intent `json:"detected_intent"`
	IntentCorrect  bool            `json:"intent_correct"`
	RecallAtK      float64         `json:"recall_at_k"`
	MRRAtK         float64         `json:"mrr_at_k"`
	ResultCount    int             `json:"result_count"`
	RetrievedIDs   []string        `json:"retrieved_ids"`
	Latency        time.Duration   `json:"latency_ns"`
	Error          string          `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	K               int                                `json:"k"`
	TotalQueries    int                                `json:"total_queries"`
	FailedQueries   int                                `json:"failed_queries"`
	QueriesWithHits int                                `json:"queries_with_hits"`
	AvgRecallAtK    float64                            `json:"avg_recall_at_k"`
	AvgMRRAtK       float64                            `json:"avg_mrr_at_k"`
	IntentAccuracy  float64                            `json:"intent_accuracy"`
	AvgLatency      time.Duration                      `json:"avg_latency_ns"`
	ByIntent        map[entities.Intent]*IntentSummary `json:"by_intent"`
	Results         []EvalResult                       `json:"results"`
}

// IntentSummary holds metrics grouped by expected intent.
type IntentSummary struct {
	Count          int     `json:"count"`
	Correct        int     `json:"correct"`
	IntentAccuracy float64 `json:"intent_accuracy"`
	AvgRecallAtK   float64 `json:"avg_recall_at_k"`
	AvgMRRAtK      float64 `json:"avg_mrr_at_k"`
}
