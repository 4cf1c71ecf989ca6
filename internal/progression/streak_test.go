package progression

import (
	"testing"
	"time"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d.Add(15 * time.Hour)
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name     string
		today    string
		last     string
		current  int
		expected int
	}{
		{"same day unchanged", "2024-03-10", "2024-03-10", 4, 4},
		{"yesterday continues", "2024-03-10", "2024-03-09", 4, 5},
		{"two days ago restarts", "2024-03-10", "2024-03-08", 4, 1},
		{"no prior date", "2024-03-10", "", 0, 1},
		{"malformed date", "2024-03-10", "03/09/2024", 9, 1},
		{"future date", "2024-03-10", "2024-03-11", 3, 1},
		{"month boundary", "2024-03-01", "2024-02-29", 2, 3},
		{"year boundary", "2024-01-01", "2023-12-31", 10, 11},
		{"negative current", "2024-03-10", "2024-03-09", -3, 1},
	}

	for _, tt := range tests {
		got := ComputeStreak(day(t, tt.today), tt.last, tt.current)
		if got != tt.expected {
			t.Errorf("%s: ComputeStreak(%s, %q, %d) = %d, want %d",
				tt.name, tt.today, tt.last, tt.current, got, tt.expected)
		}
	}
}

func TestComputeStreak_Idempotent(t *testing.T) {
	today := day(t, "2024-06-15")

	first := ComputeStreak(today, "2024-06-14", 6)
	second := ComputeStreak(today, Day(today), first)
	if first != 7 || second != 7 {
		t.Errorf("streak after two calls = %d then %d, want 7 both times", first, second)
	}
}

func TestComputeStreak_UsesTodaysLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 23:30 UTC on the 9th is already the 10th in Tokyo.
	today := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC).In(tokyo)

	if got := ComputeStreak(today, "2024-03-09", 2); got != 3 {
		t.Errorf("ComputeStreak = %d, want 3", got)
	}
}

func TestComputeStreak_AcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	today := time.Date(2024, 3, 11, 0, 30, 0, 0, loc)
	if got := ComputeStreak(today, "2024-03-10", 1); got != 2 {
		t.Errorf("ComputeStreak = %d, want 2", got)
	}
}

func TestParseDay(t *testing.T) {
	if _, ok := ParseDay(""); ok {
		t.Error("empty string should not parse")
	}
	if _, ok := ParseDay("2024-13-01"); ok {
		t.Error("invalid month should not parse")
	}
	d, ok := ParseDay("2024-02-29")
	if !ok || Day(d) != "2024-02-29" {
		t.Errorf("ParseDay round trip = %v, %v", d, ok)
	}
}

func TestStreakStateAndAlive(t *testing.T) {
	today := day(t, "2024-05-05")

	if StateOf(0) != StreakDormant || StateOf(3) != StreakActive {
		t.Error("unexpected streak states")
	}
	if !StreakAlive(today, "2024-05-05", 2) {
		t.Error("streak credited today should be alive")
	}
	if !StreakAlive(today, "2024-05-04", 2) {
		t.Error("streak credited yesterday should be alive")
	}
	if StreakAlive(today, "2024-05-02", 2) {
		t.Error("streak with a gap should have lapsed")
	}
	if StreakAlive(today, "2024-05-05", 0) {
		t.Error("dormant streak is never alive")
	}
}
