package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

// DefaultSynonyms is the built in IT vocabulary, canonical term first.
var DefaultSynonyms = map[string][]string{
	"email":     {"mail", "e-mail", "electronic mail"},
	"password":  {"pwd", "pass", "passwd"},
	"username":  {"user", "login", "userid"},
	"computer":  {"pc", "desktop", "laptop"},
	"internet":  {"web", "online", "network"},
	"printer":   {"print", "printing"},
	"software":  {"program", "application", "app"},
	"hardware":  {"device", "equipment"},
	"error":     {"issue", "problem", "bug", "fault"},
	"solution":  {"fix", "resolve", "repair"},
	"restart":   {"reboot", "reset"},
	"update":    {"upgrade", "patch"},
	"install":   {"setup", "configure"},
	"uninstall": {"remove", "delete"},
}

// TermExpansionService expands query terms into synonyms. Every member of a
// synonym group, canonical or not, expands to the rest of its group.
type TermExpansionService struct {
	mu     sync.RWMutex
	groups [][]string       // canonical term first
	index  map[string][]int // member → group indexes
}

// NewTermExpansionService creates a term expansion service from a JSON file
// mapping canonical terms to their synonyms.
func NewTermExpansionService(configPath string) (*TermExpansionService, error) {
	s := newTermExpansionService()
	if err := s.loadConfig(configPath); err != nil {
		return nil, err
	}
	return s, nil
}

// NewTermExpansionServiceFromTable creates a term expansion service from an in-memory table.
func NewTermExpansionServiceFromTable(table map[string][]string) *TermExpansionService {
	s := newTermExpansionService()
	s.setTable(table)
	return s
}

func newTermExpansionService() *TermExpansionService {
	return &TermExpansionService{index: make(map[string][]int)}
}

// loadConfig loads the synonym groups from a JSON file
func (s *TermExpansionService) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read synonyms file: %w", err)
	}

	var mappings map[string][]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("failed to parse synonyms file: %w", err)
	}
	s.setTable(mappings)
	return nil
}

func (s *TermExpansionService) setTable(table map[string][]string) {
	heads := make([]string, 0, len(table))
	for k := range table {
		heads = append(heads, k)
	}
	sort.Strings(heads)

	groups := make([][]string, 0, len(heads))
	index := make(map[string][]int)
	for _, head := range heads {
		group := []string{utils.NormalizeText(head)}
		for _, syn := range table[head] {
			if n := utils.NormalizeText(syn); n != "" {
				group = append(group, n)
			}
		}
		if group[0] == "" {
			continue
		}
		gi := len(groups)
		groups = append(groups, group)
		for _, member := range group {
			index[member] = append(index[member], gi)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = groups
	s.index = index
}

// Expand returns synonyms for the terms of a normalized query. Stop words and
// tokens inside multi-word entities are not expanded, and no term of the query
// itself, nor a stem of one, is returned. The order is deterministic.
func (s *TermExpansionService) Expand(normalized string, found []entities.Entity) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := tokenSpans(normalized)
	if len(tokens) == 0 {
		return []string{}
	}

	// Stems of query words count as the query's own terms.
	original := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		for _, key := range lookupKeys(tok.text) {
			original[key] = struct{}{}
		}
	}

	expanded := []string{}
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if utils.IsStopWord(tok.text) || coveredByPhrase(tok, found) {
			continue
		}
		for _, key := range lookupKeys(tok.text) {
			for _, gi := range s.index[key] {
				for _, term := range s.groups[gi] {
					if _, ok := original[term]; ok {
						continue
					}
					if _, ok := seen[term]; ok {
						continue
					}
					seen[term] = struct{}{}
					expanded = append(expanded, term)
				}
			}
		}
	}
	return expanded
}

// Vocabulary returns every known term with whether it is a canonical head, sorted.
func (s *TermExpansionService) Vocabulary() []VocabularyTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()

	canonical := make(map[string]bool)
	for _, g := range s.groups {
		canonical[g[0]] = true
	}
	terms := make([]VocabularyTerm, 0, len(s.index))
	for term := range s.index {
		terms = append(terms, VocabularyTerm{Term: term, Canonical: canonical[term]})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Term < terms[j].Term })
	return terms
}

// Groups returns copies of the synonym groups, canonical term first, ordered by canonical term.
func (s *TermExpansionService) Groups() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]string, len(s.groups))
	for i, g := range s.groups {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// VocabularyTerm is a synonym table entry.
type VocabularyTerm struct {
	Term      string
	Canonical bool
}

type tokenSpan struct {
	text       string
	start, end int
}

func tokenSpans(s string) []tokenSpan {
	var spans []tokenSpan
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				spans = append(spans, tokenSpan{text: s[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, tokenSpan{text: s[start:], start: start, end: len(s)})
	}
	return spans
}

func coveredByPhrase(tok tokenSpan, found []entities.Entity) bool {
	for _, e := range found {
		if strings.Contains(e.Text, " ") && tok.start >= e.Start && tok.end <= e.End {
			return true
		}
	}
	return false
}

// lookupKeys returns the token and its suffix stripped stems. Stems are only
// used for lookup and never returned as expansions.
func lookupKeys(token string) []string {
	keys := []string{token}
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if len(token) > len(suffix)+2 && strings.HasSuffix(token, suffix) {
			if suffix == "s" && strings.HasSuffix(token, "ss") {
				continue
			}
			keys = append(keys, strings.TrimSuffix(token, suffix))
		}
	}
	return keys
}
