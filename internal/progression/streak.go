package progression

import "time"

// DayLayout is the ISO calendar-day format used for StreakLastDate.
const DayLayout = "2006-01-02"

// Day formats t as an ISO calendar day in t's own location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses an ISO calendar day. It reports false for empty or
// malformed input.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ComputeStreak returns the streak after an XP-awarding activity on today.
//
//   - lastDate is today: current is returned unchanged.
//   - lastDate is the day before today: current+1.
//   - anything else (gap, empty, malformed, in the future): 1.
//
// Calendar days are taken in today's location.
func ComputeStreak(today time.Time, lastDate string, current int) int {
	current = max(current, 0)

	if lastDate == Day(today) {
		return current
	}

	if _, ok := ParseDay(lastDate); !ok {
		return 1
	}

	if lastDate == Day(yesterdayOf(today)) {
		return current + 1
	}
	return 1
}

// yesterdayOf returns midnight of the previous calendar day in t's location.
func yesterdayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, t.Location())
}

// StreakState names the two states of the streak machine.
type StreakState string

const (
	StreakDormant StreakState = "dormant"
	StreakActive  StreakState = "active"
)

// StateOf reports the streak state of a stored streak count.
func StateOf(streak int) StreakState {
	if streak <= 0 {
		return StreakDormant
	}
	return StreakActive
}

// StreakAlive reports whether a stored streak would still continue if the
// learner earned XP on today. A streak whose last day is older than
// yesterday has lapsed even though the stored count is not decayed.
func StreakAlive(today time.Time, lastDate string, streak int) bool {
	if streak <= 0 {
		return false
	}
	return lastDate == Day(today) || lastDate == Day(yesterdayOf(today))
}
