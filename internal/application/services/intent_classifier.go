package services

import (
	"regexp"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// IntentRule is one pattern group for an intent. A group contributes its
// weight once, however many times it matches.
type IntentRule struct {
	Intent  entities.Intent
	Pattern *regexp.Regexp
	Weight  float64
}

// DefaultIntentRules returns the built in helpdesk intent patterns.
func DefaultIntentRules() []IntentRule {
	rule := func(intent entities.Intent, expr string) IntentRule {
		return IntentRule{Intent: intent, Pattern: regexp.MustCompile(expr), Weight: 1}
	}
	return []IntentRule{
		rule(entities.IntentProblem, `\b(error|issue|problem|bug|fail|failed|failing|broken|crash|crashing|not working|doesn't work|can't|cannot|won't)\b`),
		rule(entities.IntentProblem, `\b(fix|resolve|solve|troubleshoot|repair)\b`),
		rule(entities.IntentProblem, `\b(how to fix|how to resolve|how to solve)\b`),

		rule(entities.IntentQuestion, `\b(what|how|why|when|where|which|who)\b`),
		rule(entities.IntentQuestion, `\b(explain|describe|tell me|show me)\b`),
		rule(entities.IntentQuestion, `\b(what is|how does|why does)\b`),

		rule(entities.IntentRequest, `\b(need|want|require|looking for|searching for)\b`),
		rule(entities.IntentRequest, `\b(help with|assistance with|support for)\b`),
		rule(entities.IntentRequest, `\b(guide|tutorial|instructions|steps)\b`),
	}
}

// IntentClassifier scores normalized text against an immutable rule table.
type IntentClassifier struct {
	rules []IntentRule
}

// NewIntentClassifier copies rules into a new classifier.
func NewIntentClassifier(rules []IntentRule) *IntentClassifier {
	return &IntentClassifier{rules: append([]IntentRule(nil), rules...)}
}

// Classify returns the best intent and its confidence score/(score+1).
// Ties are broken by entities.IntentPriority. Text that matches nothing is
// general with zero confidence.
func (c *IntentClassifier) Classify(normalized string) (entities.Intent, float64) {
	scores := make(map[entities.Intent]float64, len(entities.IntentPriority))
	for _, r := range c.rules {
		if r.Weight > 0 && r.Pattern.MatchString(normalized) {
			scores[r.Intent] += r.Weight
		}
	}

	best, bestScore := entities.IntentGeneral, 0.0
	for _, intent := range entities.IntentPriority {
		if s := scores[intent]; s > bestScore {
			best, bestScore = intent, s
		}
	}
	if bestScore <= 0 {
		return entities.IntentGeneral, 0
	}
	return best, clamp01(bestScore / (bestScore + 1))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
