package pronunciation

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Distance is the Levenshtein edit distance between a and b with unit
// insertion, deletion and substitution costs, counted over runes.
func Distance(a, b string) int {
	return matchr.Levenshtein(a, b)
}

// Similarity returns 1 - Distance(a, b)/max(len(a), len(b)) with lengths in
// runes. Two empty strings are identical; one empty string scores 0.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		if la == lb {
			return 1
		}
		return 0
	}
	return 1 - float64(Distance(a, b))/float64(max(la, lb))
}
