package services

import (
	"regexp"
	"sort"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// EntityRule recognizes one family of entities.
type EntityRule struct {
	Type    entities.EntityType
	Pattern *regexp.Regexp
}

// DefaultEntityRules returns the built in software, hardware and error code patterns.
func DefaultEntityRules() []EntityRule {
	rule := func(t entities.EntityType, expr string) EntityRule {
		return EntityRule{Type: t, Pattern: regexp.MustCompile(expr)}
	}
	return []EntityRule{
		rule(entities.EntitySoftware, `\b(windows(?: \d+| xp| vista)?|mac ?os|macos|mac|linux|ubuntu|centos|debian)\b`),
		rule(entities.EntitySoftware, `\b(microsoft office|office 365|office|word|excel|powerpoint|outlook|teams)\b`),
		rule(entities.EntitySoftware, `\b(chrome|firefox|safari|edge|opera)\b`),
		rule(entities.EntitySoftware, `\b(photoshop|illustrator|indesign|premiere|acrobat)\b`),

		rule(entities.EntityErrorCode, `\b(error|err) \d{3,4}\b`),
		rule(entities.EntityErrorCode, `\b0x(?:[0-9a-f]{8}|[0-9a-f]{4})\b`),
		rule(entities.EntityErrorCode, `\b(bsod|blue screen(?: of death)?|kernel panic)\b`),

		rule(entities.EntityHardware, `\b(printers?|scanners?|keyboards?|mouse|mice|monitors?|displays?|webcams?|headsets?)\b`),
		rule(entities.EntityHardware, `\b(routers?|modems?|switch|hubs?|access points?)\b`),
		rule(entities.EntityHardware, `\b(cpu|gpu|ram|ssd|hard drives?|motherboard|battery|laptop)\b`),
	}
}

// EntityExtractor finds typed spans in normalized text. Spans of different
// types may overlap; within a type the longest span wins.
type EntityExtractor struct {
	rules []EntityRule
	types []entities.EntityType
}

// NewEntityExtractor copies rules into a new extractor.
func NewEntityExtractor(rules []EntityRule) *EntityExtractor {
	seen := make(map[entities.EntityType]struct{})
	var types []entities.EntityType
	for _, r := range rules {
		if _, ok := seen[r.Type]; !ok {
			seen[r.Type] = struct{}{}
			types = append(types, r.Type)
		}
	}
	return &EntityExtractor{rules: append([]EntityRule(nil), rules...), types: types}
}

// Extract returns entities ordered by start offset, then type.
func (x *EntityExtractor) Extract(normalized string) []entities.Entity {
	var out []entities.Entity
	for _, t := range x.types {
		out = append(out, x.extractType(normalized, t)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func (x *EntityExtractor) extractType(text string, t entities.EntityType) []entities.Entity {
	var candidates []entities.Entity
	for _, r := range x.rules {
		if r.Type != t {
			continue
		}
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			candidates = append(candidates, entities.Entity{
				Type:  t,
				Text:  text[loc[0]:loc[1]],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}

	// Longest first, earliest first among equals.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Len() != candidates[j].Len() {
			return candidates[i].Len() > candidates[j].Len()
		}
		return candidates[i].Start < candidates[j].Start
	})

	var kept []entities.Entity
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}
