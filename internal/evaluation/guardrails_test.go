package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardrails_Pass(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinRecallAtK: 0.5, MinMRRAtK: 0.5, MinIntentAccuracy: 0.7})

	violations := g.Check(&EvalSummary{K: 10, AvgRecallAtK: 0.8, AvgMRRAtK: 0.6, IntentAccuracy: 0.7})
	assert.Empty(t, violations)
}

func TestGuardrails_ReportsEveryMiss(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinRecallAtK: 0.5, MinMRRAtK: 0.5, MinIntentAccuracy: 0.7})

	violations := g.Check(&EvalSummary{K: 10, AvgRecallAtK: 0.4, AvgMRRAtK: 0.2, IntentAccuracy: 0.5, FailedQueries: 1})
	assert.Len(t, violations, 4)
	assert.Contains(t, violations[0], "recall@10")
	assert.Contains(t, violations[3], "1 failed queries")
}

func TestGuardrails_ZeroConfigOnlyRejectsFailures(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	assert.Empty(t, g.Check(&EvalSummary{}))
	assert.Len(t, g.Check(&EvalSummary{FailedQueries: 2}), 1)
	assert.Equal(t, []string{"no evaluation summary"}, g.Check(nil))
}
