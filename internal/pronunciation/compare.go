package pronunciation

import "math"

// Comparison is the result of scoring one spoken attempt.
type Comparison struct {
	Score    int        `json:"score"`
	Band     Band       `json:"band"`
	Feedback string     `json:"feedback"`
	Spoken   string     `json:"spoken"`
	Target   string     `json:"target"`
	Words    []WordHint `json:"words,omitempty"`
}

// SpeechDetected reports whether the attempt contained any scorable speech.
func (c Comparison) SpeechDetected() bool {
	return c.Band != BandNoSpeech
}

// Compare normalizes both inputs and scores spoken against target.
//
// An empty normalized transcript is "no speech" with score 0. Identical
// normalized strings score exactly 100 without going through the distance.
func Compare(spoken, target string) Comparison {
	c := Comparison{
		Spoken: Normalize(spoken),
		Target: Normalize(target),
	}

	switch {
	case c.Spoken == "":
		c.Band = BandNoSpeech
	case c.Spoken == c.Target:
		c.Score = 100
		c.Band = BandPerfect
	default:
		c.Score = int(math.Round(100 * Similarity(c.Spoken, c.Target)))
		c.Band = BandFor(c.Score)
	}

	c.Feedback = c.Band.Message()
	if c.Spoken != "" {
		c.Words = WordHints(c.Spoken, c.Target)
	}
	return c
}
