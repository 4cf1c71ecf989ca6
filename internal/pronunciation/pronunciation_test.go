package pronunciation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  Héllo  ", "hllo"},
		{"a  b", "a  b"},
		{"\tHi\n", "hi"},
		{"123 !?", ""},
		{"", ""},
		{"\uFEFFgood morning", "good morning"},
		{"Don't", "dont"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"hello", "hello", 0},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	assert.Equal(t, 1.0, Similarity("same", "same"))
	assert.InDelta(t, 0.8, Similarity("helo", "hello"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}

func TestSimilarity_SymmetricAndBounded(t *testing.T) {
	words := []string{"", "a", "the", "their", "there", "good morning", "goodmorning", "thank you", "xyz"}
	for _, a := range words {
		for _, b := range words {
			ab, ba := Similarity(a, b), Similarity(b, a)
			if ab != ba {
				t.Errorf("Similarity(%q, %q) = %v but reversed = %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("Similarity(%q, %q) = %v outside [0,1]", a, b, ab)
			}
		}
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  Band
	}{
		{100, BandExcellent},
		{90, BandExcellent},
		{89, BandGood},
		{75, BandGood},
		{74, BandKeepPracticing},
		{50, BandKeepPracticing},
		{49, BandTryAgain},
		{0, BandTryAgain},
	}
	for _, tt := range tests {
		if got := BandFor(tt.score); got != tt.want {
			t.Errorf("BandFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestBandMessages(t *testing.T) {
	for _, b := range []Band{BandNoSpeech, BandPerfect, BandExcellent, BandGood, BandKeepPracticing, BandTryAgain} {
		if b.Message() == "" {
			t.Errorf("band %q has no message", b)
		}
	}
	assert.Equal(t, "Perfect pronunciation!", BandPerfect.Message())
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		spoken string
		target string
		score  int
		band   Band
	}{
		{"empty transcript", "", "hello", 0, BandNoSpeech},
		{"only punctuation", "?!", "hello", 0, BandNoSpeech},
		{"case and punctuation ignored", "Hello!", "hello", 100, BandPerfect},
		{"one letter dropped", "helo", "hello", 80, BandGood},
		{"missing space", "goodmorning", "good morning", 92, BandExcellent},
		{"kitten", "kitten", "sitting", 57, BandKeepPracticing},
		{"unrelated", "abc", "xyz", 0, BandTryAgain},
		{"empty target", "bonjour", "", 0, BandTryAgain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.spoken, tt.target)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.band, got.Band)
			assert.Equal(t, tt.band.Message(), got.Feedback)
			assert.Equal(t, Normalize(tt.spoken), got.Spoken)
			assert.Equal(t, Normalize(tt.target), got.Target)
		})
	}
}

func TestCompare_SpeechDetected(t *testing.T) {
	assert.False(t, Compare("", "hi").SpeechDetected())
	assert.True(t, Compare("ho", "hi").SpeechDetected())
}

func TestCompare_WordHintsDoNotAffectScore(t *testing.T) {
	c := Compare("I like there cat", "I like their dog")
	want := []WordHint{
		{Target: "i", Spoken: "i", Kind: HintExact},
		{Target: "like", Spoken: "like", Kind: HintExact},
		{Target: "their", Spoken: "there", Kind: HintSoundsAlike},
		{Target: "dog", Spoken: "cat", Kind: HintMismatch},
	}
	assert.Equal(t, want, c.Words)

	score := int(Similarity(c.Spoken, c.Target)*100 + 0.5)
	assert.Equal(t, score, c.Score)
}

func TestWordHints_Missing(t *testing.T) {
	hints := WordHints("i like", "i like cats")
	if len(hints) != 3 {
		t.Fatalf("len = %d, want 3", len(hints))
	}
	if hints[2].Kind != HintMissing || hints[2].Spoken != "" {
		t.Errorf("hints[2] = %+v, want missing", hints[2])
	}
	if WordHints("anything", "") != nil {
		t.Error("empty target should yield no hints")
	}
}
