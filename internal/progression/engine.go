package progression

import "time"

// Engine bundles a threshold table, an achievement catalog and a reward
// policy. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	thresholds []Threshold
	catalog    []Achievement
	rewards    Rewards
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds replaces the level ladder. The default catalog is rebuilt
// against it unless WithCatalog is also given.
func WithThresholds(t []Threshold) Option {
	return func(e *Engine) {
		e.thresholds = append([]Threshold(nil), t...)
	}
}

// WithCatalog replaces the achievement catalog.
func WithCatalog(c []Achievement) Option {
	return func(e *Engine) {
		e.catalog = append([]Achievement(nil), c...)
	}
}

// WithRewards replaces the XP award policy.
func WithRewards(r Rewards) Option {
	return func(e *Engine) {
		e.rewards = r
	}
}

// NewEngine returns an Engine with the reference table, catalog and rewards
// unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rewards: DefaultRewards()}
	for _, o := range opts {
		o(e)
	}
	if e.thresholds == nil {
		e.thresholds = append([]Threshold(nil), DefaultThresholds...)
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog(e.thresholds)
	}
	return e
}

// Thresholds returns a copy of the level ladder.
func (e *Engine) Thresholds() []Threshold {
	return append([]Threshold(nil), e.thresholds...)
}

// Catalog returns a copy of the achievement catalog.
func (e *Engine) Catalog() []Achievement {
	return append([]Achievement(nil), e.catalog...)
}

// Rewards returns the award policy.
func (e *Engine) Rewards() Rewards {
	return e.rewards
}

// Level maps xp onto the engine's ladder.
func (e *Engine) Level(xp int) LevelInfo {
	return LevelFromXP(xp, e.thresholds)
}

// LessonXP scores a quiz with the engine's reward policy.
func (e *Engine) LessonXP(correct, total int) (LessonResult, error) {
	return e.rewards.LessonXP(correct, total)
}

// Earned returns the achievements p has earned.
func (e *Engine) Earned(p Progress) []Achievement {
	return EvaluateAchievements(p, e.catalog)
}

// Statuses returns every achievement with its earned flag.
func (e *Engine) Statuses(p Progress) []AchievementStatus {
	return AchievementStatuses(p, e.catalog)
}

// Outcome describes one XP award applied to a progress snapshot.
type Outcome struct {
	Before   Progress      `json:"before"`
	After    Progress      `json:"after"`
	Awarded  int           `json:"awarded"`
	Level    LevelInfo     `json:"level"`
	LevelUp  bool          `json:"levelUp"`
	Unlocked []Achievement `json:"unlocked,omitempty"`
}

// Activity is one XP-awarding event plus the counters it advances.
type Activity struct {
	XP            int
	LessonsPassed int
	ChatSessions  int
}

// Award applies a plain XP award on today.
func (e *Engine) Award(p Progress, amount int, today time.Time) Outcome {
	return e.Apply(p, Activity{XP: amount}, today)
}

// Apply records act on today. Negative amounts award nothing but still count
// as activity for the streak. The input snapshot is not modified.
func (e *Engine) Apply(p Progress, act Activity, today time.Time) Outcome {
	amount := max(act.XP, 0)

	after := p
	after.XP = max(p.XP, 0) + amount
	after.LessonsCompleted = max(p.LessonsCompleted, 0) + max(act.LessonsPassed, 0)
	after.ChatSessions = max(p.ChatSessions, 0) + max(act.ChatSessions, 0)
	after.Streak = ComputeStreak(today, p.StreakLastDate, p.Streak)
	after.StreakLastDate = Day(today)

	before := e.Level(p.XP)
	level := e.Level(after.XP)

	return Outcome{
		Before:   p,
		After:    after,
		Awarded:  amount,
		Level:    level,
		LevelUp:  level.Tier > before.Tier,
		Unlocked: e.newlyEarned(p, after),
	}
}

// newlyEarned returns achievements earned by after but not by before.
func (e *Engine) newlyEarned(before, after Progress) []Achievement {
	var out []Achievement
	for _, a := range e.catalog {
		if a.Earned(after) && !a.Earned(before) {
			out = append(out, a)
		}
	}
	return out
}
