package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// noiseChars matches everything that is not a letter, digit, whitespace or
// one of the in-word separators - ' _ /.
var noiseChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-'_/]`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {},
}

// NormalizeText lower-cases s, replaces control characters and punctuation
// with spaces, collapses runs of whitespace and trims the result.
// NormalizeText is idempotent.
func NormalizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, s)
	s = noiseChars.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize normalizes s and splits it into words.
func Tokenize(s string) []string {
	return strings.Fields(NormalizeText(s))
}

// IsStopWord reports whether the lower-case word carries no search meaning.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
