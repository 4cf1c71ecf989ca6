package pronunciation

// Band is a qualitative bucket of a pronunciation score.
type Band string

const (
	BandNoSpeech       Band = "no-speech"
	BandPerfect        Band = "perfect"
	BandExcellent      Band = "excellent"
	BandGood           Band = "good"
	BandKeepPracticing Band = "keep-practicing"
	BandTryAgain       Band = "try-again"
)

// Lower bounds of the scored bands.
const (
	ExcellentMin      = 90
	GoodMin           = 75
	KeepPracticingMin = 50
)

var bandMessages = map[Band]string{
	BandNoSpeech:       "No speech detected. Please try again.",
	BandPerfect:        "Perfect pronunciation!",
	BandExcellent:      "Excellent! Nearly perfect pronunciation.",
	BandGood:           "Good effort! Minor pronunciation differences detected.",
	BandKeepPracticing: "Keep practicing! Focus on the stressed syllables.",
	BandTryAgain:       "Try listening again carefully and repeat slowly.",
}

// Message is the learner-facing feedback line for b.
func (b Band) Message() string {
	return bandMessages[b]
}

// BandFor maps a similarity score in [0,100] to a band. Perfect and
// no-speech are decided before scoring and never returned here.
func BandFor(score int) Band {
	switch {
	case score >= ExcellentMin:
		return BandExcellent
	case score >= GoodMin:
		return BandGood
	case score >= KeepPracticingMin:
		return BandKeepPracticing
	default:
		return BandTryAgain
	}
}
