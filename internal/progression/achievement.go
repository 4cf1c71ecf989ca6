package progression

// Progress is a learner's persisted progress record as the engine sees it.
// Absent fields are zero.
type Progress struct {
	XP               int    `json:"xp"`
	Streak           int    `json:"streak"`
	StreakLastDate   string `json:"streakLastDate,omitempty"`
	LessonsCompleted int    `json:"lessonsCompleted"`
	ChatSessions     int    `json:"chatSessions"`
}

// Achievement is a catalog entry whose earned state is derived from a
// Progress snapshot.
type Achievement struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Emoji       string              `json:"emoji"`
	Description string              `json:"description"`
	Check       func(Progress) bool `json:"-"`
}

// Earned applies the predicate. Entries without one are never earned.
func (a Achievement) Earned(p Progress) bool {
	if a.Check == nil {
		return false
	}
	return a.Check(p)
}

// AchievementStatus pairs a catalog entry with its derived earned flag.
type AchievementStatus struct {
	Achievement
	Earned bool `json:"earned"`
}

// EvaluateAchievements returns the earned subset of catalog, in catalog order.
func EvaluateAchievements(p Progress, catalog []Achievement) []Achievement {
	var earned []Achievement
	for _, a := range catalog {
		if a.Earned(p) {
			earned = append(earned, a)
		}
	}
	return earned
}

// AchievementStatuses returns every catalog entry with its earned flag.
func AchievementStatuses(p Progress, catalog []Achievement) []AchievementStatus {
	out := make([]AchievementStatus, len(catalog))
	for i, a := range catalog {
		out[i] = AchievementStatus{Achievement: a, Earned: a.Earned(p)}
	}
	return out
}

// DefaultCatalog returns the reference achievements. Level achievements are
// judged against thresholds.
func DefaultCatalog(thresholds []Threshold) []Achievement {
	levelAtLeast := func(minXP int) func(Progress) bool {
		return func(p Progress) bool {
			return LevelFromXP(p.XP, thresholds).MinXP >= minXP
		}
	}

	return []Achievement{
		{ID: "first-lesson", Name: "First Lesson", Emoji: "📖", Description: "Complete your first lesson",
			Check: func(p Progress) bool { return p.LessonsCompleted >= 1 }},
		{ID: "streak-3", Name: "3-Day Streak", Emoji: "🔥", Description: "Practice 3 days in a row",
			Check: func(p Progress) bool { return p.Streak >= 3 }},
		{ID: "streak-7", Name: "7-Day Streak", Emoji: "🔥", Description: "Practice 7 days in a row",
			Check: func(p Progress) bool { return p.Streak >= 7 }},
		{ID: "streak-30", Name: "30-Day Streak", Emoji: "💪", Description: "Practice 30 days in a row",
			Check: func(p Progress) bool { return p.Streak >= 30 }},
		{ID: "xp-100", Name: "Getting Started", Emoji: "⭐", Description: "Earn 100 XP",
			Check: func(p Progress) bool { return p.XP >= 100 }},
		{ID: "xp-500", Name: "Rising Star", Emoji: "🌟", Description: "Earn 500 XP",
			Check: func(p Progress) bool { return p.XP >= 500 }},
		{ID: "xp-1000", Name: "XP Champion", Emoji: "🏆", Description: "Earn 1,000 XP",
			Check: func(p Progress) bool { return p.XP >= 1000 }},
		{ID: "lessons-5", Name: "Scholar", Emoji: "📚", Description: "Complete 5 lessons",
			Check: func(p Progress) bool { return p.LessonsCompleted >= 5 }},
		{ID: "lessons-10", Name: "Dedicated Learner", Emoji: "🎓", Description: "Complete 10 lessons",
			Check: func(p Progress) bool { return p.LessonsCompleted >= 10 }},
		{ID: "level-a2", Name: "Level Up!", Emoji: "🚀", Description: "Reach A2 level",
			Check: levelAtLeast(500)},
		{ID: "level-b1", Name: "Intermediate!", Emoji: "💎", Description: "Reach B1 level",
			Check: levelAtLeast(1000)},
		{ID: "chatter", Name: "Chatter", Emoji: "💬", Description: "Have 10 AI conversations",
			Check: func(p Progress) bool { return p.ChatSessions >= 10 }},
	}
}
