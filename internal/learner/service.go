// Package learner orchestrates progression for one learner at a time: it
// reads the stored record, runs the pure progression engine, and writes the
// outcome back through the storage collaborators.
package learner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/observe"
	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/store"
)

// Store is the set of repositories the service writes through. Both the
// SQLite and PostgreSQL stores satisfy it.
type Store interface {
	Learners() store.LearnerRepo
	XPEvents() store.XPEventRepo
	Lessons() store.LessonRepo
	Sessions() store.SessionRepo
	Achievements() store.AchievementRepo
	Activities() store.ActivityRepo
}

// Session lengths in minutes logged for each activity. Chat matches the
// five-minute credit the web client gives a conversation.
const (
	ChatMinutes          = 5
	QuizMinutes          = 10
	PronunciationMinutes = 1
	WritingMinutes       = 10
)

// Service applies learner activities.
type Service struct {
	store   Store
	engine  *progression.Engine
	loc     *time.Location
	now     func() time.Time
	log     *zap.Logger
	metrics *observe.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithEngine replaces the default progression engine.
func WithEngine(e *progression.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithLocation sets the timezone used to derive calendar days. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service over st.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		engine: progression.NewEngine(),
		loc:    time.UTC,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Engine exposes the progression engine the service applies.
func (s *Service) Engine() *progression.Engine { return s.engine }

// today returns the current instant in the configured location.
func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// AwardResult is the outcome of one XP-awarding activity.
type AwardResult struct {
	LearnerID string                    `json:"learnerId"`
	Source    string                    `json:"source"`
	Awarded   int                       `json:"awarded"`
	XP        int                       `json:"xp"`
	Level     progression.LevelInfo     `json:"level"`
	Streak    int                       `json:"streak"`
	LevelUp   bool                      `json:"levelUp"`
	Unlocked  []progression.Achievement `json:"unlocked"`
}

// AwardXP adds amount XP from source to the learner.
func (s *Service) AwardXP(ctx context.Context, learnerID string, amount int, source string) (*AwardResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: XP amount must not be negative, got %d", progression.ErrInvalidInput, amount)
	}
	if source == "" {
		source = "manual"
	}
	res, _, err := s.apply(ctx, learnerID, progression.Activity{XP: amount}, source, writes{})
	return res, err
}

// writes are the records an activity stores next to the learner row.
type writes struct {
	lesson  *store.LessonResultData
	session *store.SessionData
}

// apply runs one activity through the engine and stores the learner row,
// the lesson attempt, the XP event, new unlocks and the session in a single
// transaction. firstPass reports whether w.lesson moved the lesson to passed.
func (s *Service) apply(ctx context.Context, learnerID string, act progression.Activity, source string, w writes) (*AwardResult, bool, error) {
	if err := validateID(learnerID); err != nil {
		return nil, false, err
	}

	today := s.today()
	var (
		out       progression.Outcome
		firstPass bool
	)
	_, err := s.store.Activities().Record(ctx, store.ActivityData{
		LearnerID: learnerID,
		Source:    source,
		Day:       progression.Day(today),
		At:        today,
		Lesson:    w.lesson,
		Session:   w.session,
	}, func(rec *store.LearnerRecord, passed bool) (store.ActivityChange, error) {
		a := act
		if passed {
			a.LessonsPassed = 1
		}
		firstPass = passed
		out = s.engine.Apply(toProgress(rec), a, today)
		fromProgress(rec, out.After)

		change := store.ActivityChange{Awarded: out.Awarded}
		for _, u := range out.Unlocked {
			change.Unlocked = append(change.Unlocked, u.ID)
		}
		return change, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("update learner %s: %w", learnerID, err)
	}

	ids := make([]string, 0, len(out.Unlocked))
	for _, a := range out.Unlocked {
		ids = append(ids, a.ID)
	}
	s.metrics.RecordAward(ctx, sourceKind(source), out.Awarded, out.After.Streak, out.LevelUp, ids)

	s.log.Info("xp awarded",
		zap.String("learner", learnerID),
		zap.String("source", source),
		zap.Int("amount", out.Awarded),
		zap.Int("xp", out.After.XP),
		zap.Int("streak", out.After.Streak),
		zap.String("level", out.Level.Level),
		zap.Bool("level_up", out.LevelUp),
		zap.Int("unlocked", len(out.Unlocked)),
	)

	unlocked := out.Unlocked
	if unlocked == nil {
		unlocked = []progression.Achievement{}
	}
	return &AwardResult{
		LearnerID: learnerID,
		Source:    source,
		Awarded:   out.Awarded,
		XP:        out.After.XP,
		Level:     out.Level,
		Streak:    out.After.Streak,
		LevelUp:   out.LevelUp,
		Unlocked:  unlocked,
	}, firstPass, nil
}

// session describes a practice session of kind logged today.
func (s *Service) session(learnerID, kind string, minutes int) *store.SessionData {
	return &store.SessionData{
		LearnerID:    learnerID,
		Kind:         kind,
		DurationMins: minutes,
		Day:          progression.Day(s.today()),
	}
}

// sourceKind drops the detail after ":" so metric labels stay bounded.
func sourceKind(source string) string {
	kind, _, _ := strings.Cut(source, ":")
	return kind
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: learner id is required", progression.ErrInvalidInput)
	}
	if len(id) > 128 {
		return fmt.Errorf("%w: learner id longer than 128 bytes", progression.ErrInvalidInput)
	}
	return nil
}

func toProgress(rec *store.LearnerRecord) progression.Progress {
	return progression.Progress{
		XP:               rec.XP,
		Streak:           rec.Streak,
		StreakLastDate:   rec.StreakLastDate,
		LessonsCompleted: rec.LessonsCompleted,
		ChatSessions:     rec.ChatSessions,
	}
}

func fromProgress(rec *store.LearnerRecord, p progression.Progress) {
	rec.XP = p.XP
	rec.Streak = p.Streak
	rec.StreakLastDate = p.StreakLastDate
	rec.LessonsCompleted = p.LessonsCompleted
	rec.ChatSessions = p.ChatSessions
}
