// Package pronunciation scores a spoken transcript against a target phrase
// using normalized edit distance and maps the score to a feedback band.
//
// Scoring is deterministic and holds no state, so every function here is
// safe to call from any goroutine.
package pronunciation

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, drops every rune that is not an ASCII letter or
// whitespace, and trims surrounding whitespace. Runs of internal whitespace
// are kept as-is.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || isSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimFunc(b.String(), isSpace)
}

// isSpace matches the whitespace class transcripts arrive with, including
// the zero-width no-break space some speech engines emit.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
