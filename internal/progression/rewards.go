package progression

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a contract violation by the caller, such as a quiz
// with no questions.
var ErrInvalidInput = errors.New("invalid input")

// Rewards is the XP award policy.
type Rewards struct {
	LessonComplete   int `json:"lessonComplete" mapstructure:"lesson_complete"`
	QuizPerfect      int `json:"quizPerfect" mapstructure:"quiz_perfect"`
	QuizPass         int `json:"quizPass" mapstructure:"quiz_pass"`
	SpeakingPractice int `json:"speakingPractice" mapstructure:"speaking_practice"`
	WritingPractice  int `json:"writingPractice" mapstructure:"writing_practice"`
	ChatSession      int `json:"chatSession" mapstructure:"chat_session"`
	Pronunciation    int `json:"pronunciation" mapstructure:"pronunciation"`

	// PassPercent is the minimum quiz percentage that counts as passing.
	PassPercent int `json:"passPercent" mapstructure:"pass_percent"`

	// AwardBaseOnFail keeps LessonComplete XP for failed quizzes. The
	// reference product rewards the attempt itself.
	AwardBaseOnFail bool `json:"awardBaseOnFail" mapstructure:"award_base_on_fail"`
}

// DefaultRewards returns the reference award amounts.
func DefaultRewards() Rewards {
	return Rewards{
		LessonComplete:   50,
		QuizPerfect:      75,
		QuizPass:         30,
		SpeakingPractice: 15,
		WritingPractice:  20,
		ChatSession:      10,
		Pronunciation:    15,
		PassPercent:      60,
		AwardBaseOnFail:  true,
	}
}

// LessonResult is the XP outcome of one completed lesson quiz.
type LessonResult struct {
	Percentage int  `json:"percentage"`
	Bonus      int  `json:"bonus"`
	XPAwarded  int  `json:"xpAwarded"`
	Passed     bool `json:"passed"`
	Perfect    bool `json:"perfect"`
}

// LessonXP scores a quiz of total questions with correct right answers.
func (r Rewards) LessonXP(correct, total int) (LessonResult, error) {
	if total <= 0 {
		return LessonResult{}, fmt.Errorf("%w: quiz total must be positive, got %d", ErrInvalidInput, total)
	}
	if correct < 0 || correct > total {
		return LessonResult{}, fmt.Errorf("%w: correct count %d outside [0, %d]", ErrInvalidInput, correct, total)
	}

	res := LessonResult{
		Percentage: roundInt(100 * float64(correct) / float64(total)),
		Perfect:    correct == total,
	}
	res.Passed = res.Percentage >= r.PassPercent

	switch {
	case res.Perfect:
		res.Bonus = r.QuizPerfect
	case res.Passed:
		res.Bonus = r.QuizPass
	}

	base := r.LessonComplete
	if !res.Passed && !r.AwardBaseOnFail {
		base = 0
	}
	res.XPAwarded = base + res.Bonus

	return res, nil
}

// ComputeLessonXP scores a quiz with DefaultRewards.
func ComputeLessonXP(correct, total int) (LessonResult, error) {
	return DefaultRewards().LessonXP(correct, total)
}
