package learner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/store"
)

// RecentDays is the window used for recent sessions and daily XP.
const RecentDays = 7

// AchievementView is an achievement with its earned state. An achievement
// stays earned once unlocked even if the progress that earned it (a streak)
// later lapses.
type AchievementView struct {
	progression.Achievement
	Earned     bool       `json:"earned"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// Summary is the dashboard view of a learner.
type Summary struct {
	LearnerID      string                     `json:"learnerId"`
	Progress       progression.Progress       `json:"progress"`
	Level          progression.LevelInfo      `json:"level"`
	XPToNext       int                        `json:"xpToNext"`
	CurrentStreak  int                        `json:"currentStreak"`
	StreakState    progression.StreakState    `json:"streakState"`
	Achievements   []AchievementView          `json:"achievements"`
	Today          store.DailyActivity        `json:"today"`
	RecentSessions []store.SessionRecord      `json:"recentSessions"`
	XPByDay        []store.DayTotal           `json:"xpByDay"`
	Lessons        []store.LessonResultRecord `json:"lessons"`
	CreatedAt      time.Time                  `json:"createdAt"`
}

// Summary assembles the learner's progress view. It never writes.
func (s *Service) Summary(ctx context.Context, learnerID string) (*Summary, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}

	rec, err := s.store.Learners().Get(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("get learner %s: %w", learnerID, err)
	}
	p := toProgress(rec)
	today := s.today()
	todayDay := progression.Day(today)
	since := progression.Day(today.AddDate(0, 0, -(RecentDays - 1)))

	unlocks, err := s.store.Achievements().Unlocked(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	activity, err := s.store.Sessions().DailyActivity(ctx, learnerID, todayDay)
	if err != nil {
		return nil, fmt.Errorf("load daily activity: %w", err)
	}
	sessions, err := s.store.Sessions().RecentSessions(ctx, learnerID, since)
	if err != nil {
		return nil, fmt.Errorf("load recent sessions: %w", err)
	}
	byDay, err := s.store.XPEvents().XPByDay(ctx, learnerID, since)
	if err != nil {
		return nil, fmt.Errorf("load XP by day: %w", err)
	}
	lessons, err := s.store.Lessons().LessonResults(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	current := 0
	if progression.StreakAlive(today, p.StreakLastDate, p.Streak) {
		current = p.Streak
	}

	return &Summary{
		LearnerID:      learnerID,
		Progress:       p,
		Level:          s.engine.Level(p.XP),
		XPToNext:       progression.XPToNext(p.XP, s.engine.Thresholds()),
		CurrentStreak:  current,
		StreakState:    progression.StateOf(current),
		Achievements:   mergeUnlocks(s.engine.Statuses(p), unlocks),
		Today:          activity,
		RecentSessions: nonNil(sessions),
		XPByDay:        nonNil(byDay),
		Lessons:        nonNil(lessons),
		CreatedAt:      rec.CreatedAt,
	}, nil
}

func mergeUnlocks(statuses []progression.AchievementStatus, unlocks []store.UnlockRecord) []AchievementView {
	at := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		at[u.AchievementID] = u.UnlockedAt
	}
	views := make([]AchievementView, len(statuses))
	for i, st := range statuses {
		v := AchievementView{Achievement: st.Achievement, Earned: st.Earned}
		if t, ok := at[st.ID]; ok {
			v.Earned = true
			v.UnlockedAt = &t
		}
		views[i] = v
	}
	return views
}

// History returns up to limit XP events, newest first. limit <= 0 returns all.
func (s *Service) History(ctx context.Context, learnerID string, limit int) ([]store.XPEventRecord, error) {
	if err := validateID(learnerID); err != nil {
		return nil, err
	}
	events, err := s.store.XPEvents().QueryXP(ctx, learnerID, store.QueryOpts{Limit: max(limit, 0)})
	if err != nil {
		return nil, fmt.Errorf("query XP history: %w", err)
	}
	return nonNil(events), nil
}

// Reset deletes the learner and every record that belongs to them.
func (s *Service) Reset(ctx context.Context, learnerID string) error {
	if err := validateID(learnerID); err != nil {
		return err
	}
	if err := s.store.Learners().Delete(ctx, learnerID); err != nil {
		return fmt.Errorf("reset learner %s: %w", learnerID, err)
	}
	s.log.Info("learner reset", zap.String("learner", learnerID))
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
