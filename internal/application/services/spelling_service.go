package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

// DefaultDomainTerms are common helpdesk words that are valid as typed and
// can be offered as corrections.
var DefaultDomainTerms = []string{
	"account", "adapter", "backup", "battery", "bluetooth", "browser", "cable", "calendar",
	"connect", "connection", "crash", "disk", "display", "download", "driver", "drive",
	"excel", "file", "firewall", "folder", "keyboard", "license", "locked", "memory",
	"microphone", "monitor", "mouse", "network", "offline", "outlook", "permission",
	"printer", "profile", "router", "scanner", "screen", "server", "slow", "sound",
	"storage", "sync", "teams", "upload", "virus", "vpn", "webcam", "wifi", "windows",
	"wireless", "working",
}

// SpellingService proposes corrections for misspelled query words.
type SpellingService struct {
	candidates []spellCandidate
	known      map[string]struct{}
}

type spellCandidate struct {
	term      string
	canonical bool
}

// NewSpellingService builds the correction vocabulary from the synonym table
// and extra domain words.
func NewSpellingService(expander *TermExpansionService, extra []string) *SpellingService {
	s := &SpellingService{known: make(map[string]struct{})}
	add := func(term string, canonical bool) {
		term = utils.NormalizeText(term)
		if term == "" || strings.Contains(term, " ") {
			return
		}
		if _, ok := s.known[term]; ok {
			if canonical {
				for i := range s.candidates {
					if s.candidates[i].term == term {
						s.candidates[i].canonical = true
					}
				}
			}
			return
		}
		s.known[term] = struct{}{}
		s.candidates = append(s.candidates, spellCandidate{term: term, canonical: canonical})
	}

	if expander != nil {
		for _, v := range expander.Vocabulary() {
			add(v.Term, v.Canonical)
		}
	}
	for _, t := range extra {
		add(t, false)
	}

	sort.Slice(s.candidates, func(i, j int) bool { return s.candidates[i].term < s.candidates[j].term })
	return s
}

// DidYouMean returns a corrected query when at least one word is unknown and
// close to a vocabulary term. Smaller edit distance wins, then canonical
// terms, then alphabetical order.
func (s *SpellingService) DidYouMean(text string) (string, bool) {
	words := utils.Tokenize(text)
	if len(words) == 0 {
		return "", false
	}

	changed := false
	for i, w := range words {
		if c, ok := s.correct(w); ok {
			words[i] = c
			changed = true
		}
	}
	if !changed {
		return "", false
	}
	return strings.Join(words, " "), true
}

func (s *SpellingService) correct(word string) (string, bool) {
	n := len([]rune(word))
	if n < 4 || utils.IsStopWord(word) || hasDigit(word) {
		return "", false
	}
	if s.isKnown(word) {
		return "", false
	}

	maxDist := 2
	if n <= 4 {
		maxDist = 1
	}

	best, bestDist, bestCanonical := "", maxDist+1, false
	for _, c := range s.candidates {
		if diff := len([]rune(c.term)) - n; diff > maxDist || -diff > maxDist {
			continue
		}
		d := levenshtein.ComputeDistance(word, c.term)
		if d > maxDist {
			continue
		}
		if d < bestDist || (d == bestDist && c.canonical && !bestCanonical) {
			best, bestDist, bestCanonical = c.term, d, c.canonical
		}
	}
	return best, best != ""
}

// isKnown accepts a word when it or one of its inflection stems is in the
// vocabulary, so "printers" and "crashes" stay as typed.
func (s *SpellingService) isKnown(word string) bool {
	for _, key := range lookupKeys(word) {
		if _, ok := s.known[key]; ok {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
