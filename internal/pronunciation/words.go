package pronunciation

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// HintKind classifies how one target word was rendered in the transcript.
type HintKind string

const (
	HintExact       HintKind = "exact"
	HintSoundsAlike HintKind = "sounds-alike"
	HintMismatch    HintKind = "mismatch"
	HintMissing     HintKind = "missing"
)

// WordHint pairs a target word with the transcript word in the same
// position.
type WordHint struct {
	Target string   `json:"target"`
	Spoken string   `json:"spoken,omitempty"`
	Kind   HintKind `json:"kind"`
}

// WordHints aligns the words of two normalized strings by position. A word
// that differs in spelling but shares a Double Metaphone code with its
// target is reported as sounds-alike. Extra transcript words are ignored.
func WordHints(spoken, target string) []WordHint {
	sw := strings.Fields(spoken)
	tw := strings.Fields(target)
	if len(tw) == 0 {
		return nil
	}

	hints := make([]WordHint, len(tw))
	for i, t := range tw {
		h := WordHint{Target: t}
		switch {
		case i >= len(sw):
			h.Kind = HintMissing
		case sw[i] == t:
			h.Spoken, h.Kind = sw[i], HintExact
		case soundsAlike(sw[i], t):
			h.Spoken, h.Kind = sw[i], HintSoundsAlike
		default:
			h.Spoken, h.Kind = sw[i], HintMismatch
		}
		hints[i] = h
	}
	return hints
}

// soundsAlike reports whether a and b share a non-empty Double Metaphone
// code, primary or alternate.
func soundsAlike(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}
