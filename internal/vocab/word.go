// Package vocab tracks the words a learner has studied and schedules their
// reviews on an expanding interval.
package vocab

import (
	"math"
	"strings"
	"time"
)

// Word is a studied word and its review state.
type Word struct {
	Word            string    `json:"word"`
	Meaning         string    `json:"meaning"`
	Example         string    `json:"example"`
	LearnedAt       time.Time `json:"learnedAt"`
	ReviewCount     int       `json:"reviewCount"`
	Stage           int       `json:"stage"`
	ConsecutiveHits int       `json:"consecutiveHits"`
	Graduated       bool      `json:"graduated"`
	NextReview      time.Time `json:"nextReview"`
	LastReview      time.Time `json:"lastReview"`
}

// NewWord returns a word learned at now, first due one day later.
func NewWord(word, meaning, example string, now time.Time) Word {
	return Word{
		Word:       Normalize(word),
		Meaning:    strings.TrimSpace(meaning),
		Example:    strings.TrimSpace(example),
		LearnedAt:  now,
		NextReview: now.AddDate(0, 0, BaseIntervals[0]),
	}
}

// Normalize lowercases a word and collapses internal whitespace so that
// "Break  Down" and "break down" are the same entry.
func Normalize(word string) string {
	return strings.ToLower(strings.Join(strings.Fields(word), " "))
}

// IsDue returns true if the word is due for review (at or past the review date).
func (w *Word) IsDue(now time.Time) bool {
	return !now.Before(w.NextReview)
}

// OverdueDays returns how many days past due the word is. Returns 0 if not yet due.
func (w *Word) OverdueDays(now time.Time) float64 {
	if now.Before(w.NextReview) {
		return 0
	}
	return now.Sub(w.NextReview).Hours() / 24.0
}

// IsLapsed returns true once the word is overdue by more than half its
// current interval.
func (w *Word) IsLapsed(now time.Time) bool {
	if !w.IsDue(now) {
		return false
	}
	graceHours := float64(w.CurrentIntervalDays()) * 0.5 * 24.0
	threshold := w.NextReview.Add(time.Duration(graceHours * float64(time.Hour)))
	return now.After(threshold)
}

// CurrentIntervalDays returns the current interval in days.
func (w *Word) CurrentIntervalDays() int {
	if w.Graduated {
		return GraduatedIntervalDays
	}
	if w.Stage >= len(BaseIntervals) {
		return BaseIntervals[MaxStage]
	}
	return BaseIntervals[w.Stage]
}

// Status describes a word's review status for display.
type Status string

const (
	StatusNew       Status = "new"
	StatusScheduled Status = "scheduled"
	StatusDue       Status = "due"
	StatusOverdue   Status = "overdue"
	StatusGraduated Status = "graduated"
)

// Status returns the review status at now.
func (w *Word) Status(now time.Time) Status {
	switch {
	case w.IsLapsed(now):
		return StatusOverdue
	case w.IsDue(now):
		return StatusDue
	case w.Graduated:
		return StatusGraduated
	case w.ReviewCount == 0:
		return StatusNew
	}
	return StatusScheduled
}

// DaysUntilReview returns the number of days until the next review, rounded
// up. Returns 0 if already due.
func (w *Word) DaysUntilReview(now time.Time) int {
	if w.IsDue(now) {
		return 0
	}
	return int(math.Ceil(w.NextReview.Sub(now).Hours() / 24.0))
}

// Record applies a review answer. A remembered word moves one stage out and
// graduates after GraduationStage consecutive hits. A forgotten word starts
// over at stage 0 and is due again the next day.
func (w *Word) Record(remembered bool, now time.Time) {
	w.ReviewCount++
	w.LastReview = now

	if !remembered {
		w.ConsecutiveHits = 0
		w.Stage = 0
		w.Graduated = false
		w.NextReview = now.AddDate(0, 0, BaseIntervals[0])
		return
	}

	w.ConsecutiveHits++
	if !w.Graduated {
		w.Stage = min(w.Stage+1, MaxStage)
		if w.ConsecutiveHits >= GraduationStage {
			w.Graduated = true
		}
	}
	w.NextReview = now.AddDate(0, 0, w.CurrentIntervalDays())
}
