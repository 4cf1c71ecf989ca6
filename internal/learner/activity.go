package learner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/pronunciation"
	"github.com/abhisek/fluentpath/internal/store"
)

// LessonOutcome is the result of completing a lesson quiz.
type LessonOutcome struct {
	LessonID  string                   `json:"lessonId"`
	Result    progression.LessonResult `json:"result"`
	FirstPass bool                     `json:"firstPass"`
	Award     *AwardResult             `json:"award"`
}

// CompleteLesson grades a quiz, stores the attempt and awards lesson XP.
// LessonsCompleted advances only on the first passing attempt.
func (s *Service) CompleteLesson(ctx context.Context, learnerID, lessonID string, correct, total int) (*LessonOutcome, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}
	if lessonID == "" {
		return nil, fmt.Errorf("%w: lesson id is required", progression.ErrInvalidInput)
	}

	result, err := s.engine.LessonXP(correct, total)
	if err != nil {
		return nil, err
	}

	award, firstPass, err := s.apply(ctx, learnerID, progression.Activity{XP: result.XPAwarded}, "lesson:"+lessonID, writes{
		lesson: &store.LessonResultData{
			LearnerID:  learnerID,
			LessonID:   lessonID,
			Correct:    correct,
			Total:      total,
			Percentage: result.Percentage,
			Passed:     result.Passed,
		},
		session: s.session(learnerID, store.SessionQuiz, QuizMinutes),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLesson(ctx, result.Passed)

	return &LessonOutcome{
		LessonID:  lessonID,
		Result:    result,
		FirstPass: firstPass,
		Award:     award,
	}, nil
}

// PronunciationOutcome is a scored attempt plus the XP it earned, if any.
type PronunciationOutcome struct {
	Comparison pronunciation.Comparison `json:"comparison"`
	Award      *AwardResult             `json:"award,omitempty"`
}

// PracticePronunciation scores spoken against target. Attempts with no
// detected speech are scored but not recorded.
func (s *Service) PracticePronunciation(ctx context.Context, learnerID, spoken, target string) (*PronunciationOutcome, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}

	cmp := pronunciation.Compare(spoken, target)
	s.metrics.RecordPronunciation(ctx, cmp.Score, string(cmp.Band))
	out := &PronunciationOutcome{Comparison: cmp}
	if !cmp.SpeechDetected() {
		s.log.Debug("no speech detected", zap.String("learner", learnerID))
		return out, nil
	}

	award, _, err := s.apply(ctx, learnerID, progression.Activity{XP: s.engine.Rewards().Pronunciation}, "pronunciation", writes{
		session: s.session(learnerID, store.SessionPronunciation, PronunciationMinutes),
	})
	if err != nil {
		return nil, err
	}
	out.Award = award
	return out, nil
}

// RecordChat credits one tutor conversation.
func (s *Service) RecordChat(ctx context.Context, learnerID string) (*AwardResult, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}
	res, _, err := s.apply(ctx, learnerID, progression.Activity{
		XP:           s.engine.Rewards().ChatSession,
		ChatSessions: 1,
	}, "chat", writes{session: s.session(learnerID, store.SessionChat, ChatMinutes)})
	return res, err
}

// RecordWriting credits one reviewed writing exercise.
func (s *Service) RecordWriting(ctx context.Context, learnerID string) (*AwardResult, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}
	res, _, err := s.apply(ctx, learnerID, progression.Activity{XP: s.engine.Rewards().WritingPractice}, "writing",
		writes{session: s.session(learnerID, store.SessionWriting, WritingMinutes)})
	return res, err
}

// RecordSpeaking credits free speaking practice outside a scored comparison.
func (s *Service) RecordSpeaking(ctx context.Context, learnerID string) (*AwardResult, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}
	res, _, err := s.apply(ctx, learnerID, progression.Activity{XP: s.engine.Rewards().SpeakingPractice}, "speaking",
		writes{session: s.session(learnerID, store.SessionPronunciation, PronunciationMinutes)})
	return res, err
}
