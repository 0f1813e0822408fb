package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

func TestIntentClassifier_Classify(t *testing.T) {
	c := NewIntentClassifier(DefaultIntentRules())

	tests := []struct {
		query      string
		intent     entities.Intent
		confidence float64
	}{
		{"printer not working", entities.IntentProblem, 0.5},
		{"how to fix printer", entities.IntentProblem, 2.0 / 3.0},
		{"what is a vpn", entities.IntentQuestion, 2.0 / 3.0},
		{"need a guide for vpn setup", entities.IntentRequest, 2.0 / 3.0},
		{"printer", entities.IntentGeneral, 0},
		{"passwrd reset", entities.IntentGeneral, 0},
		// one problem group and one question group: problem wins the tie
		{"how do i fix outlook", entities.IntentProblem, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			intent, confidence := c.Classify(tt.query)
			assert.Equal(t, tt.intent, intent)
			assert.InDelta(t, tt.confidence, confidence, 1e-9)
		})
	}
}

func TestIntentClassifier_GroupCountsOnce(t *testing.T) {
	c := NewIntentClassifier(DefaultIntentRules())

	_, once := c.Classify("error")
	_, repeated := c.Classify("error error bug issue")
	assert.Equal(t, once, repeated)
}

func TestIntentClassifier_ConfidenceBounded(t *testing.T) {
	c := NewIntentClassifier(DefaultIntentRules())
	queries := []string{
		"", "how to fix error why does it fail explain need help with steps",
		"what how why when where which who", "can't won't doesn't work broken",
	}
	for _, q := range queries {
		intent, confidence := c.Classify(q)
		assert.True(t, intent.Valid(), q)
		assert.GreaterOrEqual(t, confidence, 0.0, q)
		assert.LessOrEqual(t, confidence, 1.0, q)
	}
}

func TestIntentClassifier_CopiesRules(t *testing.T) {
	rules := DefaultIntentRules()
	c := NewIntentClassifier(rules)
	rules[0].Weight = 100

	_, confidence := c.Classify("printer not working")
	assert.InDelta(t, 0.5, confidence, 1e-9)
}
