package evaluation

import "fmt"

// GuardrailConfig sets the minimum quality an evaluation run must reach.
// Zero thresholds are not checked.
type GuardrailConfig struct {
	MinRecallAtK      float64
	MinMRRAtK         float64
	MinIntentAccuracy float64
	MaxFailedQueries  int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxFailedQueries < 0 {
		config.MaxFailedQueries = 0
	}
	return &Guardrails{config: config}
}

// Check returns one message per threshold the summary misses.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if s == nil {
		return []string{"no evaluation summary"}
	}
	if s.AvgRecallAtK < g.config.MinRecallAtK {
		violations = append(violations, fmt.Sprintf("recall@%d %.3f below %.3f", s.K, s.AvgRecallAtK, g.config.MinRecallAtK))
	}
	if s.AvgMRRAtK < g.config.MinMRRAtK {
		violations = append(violations, fmt.Sprintf("mrr@%d %.3f below %.3f", s.K, s.AvgMRRAtK, g.config.MinMRRAtK))
	}
	if s.IntentAccuracy < g.config.MinIntentAccuracy {
		violations = append(violations, fmt.Sprintf("intent accuracy %.3f below %.3f", s.IntentAccuracy, g.config.MinIntentAccuracy))
	}
	if s.FailedQueries > g.config.MaxFailedQueries {
		violations = append(violations, fmt.Sprintf("%d failed queries, at most %d allowed", s.FailedQueries, g.config.MaxFailedQueries))
	}
	return violations
}
