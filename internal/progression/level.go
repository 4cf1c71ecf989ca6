// Package progression maps learner activity to XP, levels, streaks and
// achievements. Every function is pure: callers pass the current progress
// snapshot and the current date, and persist whatever comes back.
package progression

import (
	"errors"
	"fmt"
	"math"
)

// MaxLevel is reported as NextLevel once the top tier is reached.
const MaxLevel = "Max"

// Threshold is the minimum XP required to attain a named proficiency tier.
type Threshold struct {
	Level string `json:"level" mapstructure:"level"`
	Name  string `json:"name" mapstructure:"name"`
	MinXP int    `json:"minXP" mapstructure:"min_xp"`
}

// DefaultThresholds is the reference CEFR-style ladder.
var DefaultThresholds = []Threshold{
	{Level: "A1", Name: "Beginner", MinXP: 0},
	{Level: "A1+", Name: "Elementary", MinXP: 200},
	{Level: "A2", Name: "Pre-Intermediate", MinXP: 500},
	{Level: "B1", Name: "Intermediate", MinXP: 1000},
	{Level: "B1+", Name: "Upper-Intermediate", MinXP: 1800},
	{Level: "B2", Name: "Advanced", MinXP: 2800},
	{Level: "C1", Name: "Proficiency", MinXP: 4000},
	{Level: "C2", Name: "Master", MinXP: 5500},
}

// LevelInfo is the derived level view of an XP total. It is never persisted.
type LevelInfo struct {
	Level          string `json:"level"`
	Name           string `json:"name"`
	MinXP          int    `json:"minXP"`
	Tier           int    `json:"tier"` // index into the threshold table
	ProgressToNext int    `json:"progressToNext"`
	NextLevel      string `json:"nextLevel"`
}

// ValidateThresholds checks that a table is usable as a level ladder:
// non-empty, starting at 0 and strictly increasing.
func ValidateThresholds(thresholds []Threshold) error {
	if len(thresholds) == 0 {
		return errors.New("threshold table is empty")
	}
	if thresholds[0].MinXP != 0 {
		return fmt.Errorf("first threshold %q must start at 0 XP, got %d", thresholds[0].Level, thresholds[0].MinXP)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i].MinXP <= thresholds[i-1].MinXP {
			return fmt.Errorf("threshold %q (%d XP) is not above %q (%d XP)",
				thresholds[i].Level, thresholds[i].MinXP, thresholds[i-1].Level, thresholds[i-1].MinXP)
		}
	}
	return nil
}

// LevelFromXP selects the highest threshold whose MinXP is <= xp.
//
// XP below the first threshold clamps to the first entry. An empty table
// yields a zero LevelInfo at "Max" rather than panicking.
func LevelFromXP(xp int, thresholds []Threshold) LevelInfo {
	if len(thresholds) == 0 {
		return LevelInfo{ProgressToNext: 100, NextLevel: MaxLevel}
	}

	idx := 0
	for i, t := range thresholds {
		if xp >= t.MinXP {
			idx = i
		}
	}

	cur := thresholds[idx]
	info := LevelInfo{
		Level:          cur.Level,
		Name:           cur.Name,
		MinXP:          cur.MinXP,
		Tier:           idx,
		ProgressToNext: 100,
		NextLevel:      MaxLevel,
	}

	if idx+1 < len(thresholds) {
		next := thresholds[idx+1]
		span := next.MinXP - cur.MinXP
		if span > 0 {
			info.ProgressToNext = clampPercent(roundInt(100 * float64(xp-cur.MinXP) / float64(span)))
		}
		info.NextLevel = next.Level
	}

	return info
}

// XPToNext returns how many XP remain before the next tier, or 0 at the top.
func XPToNext(xp int, thresholds []Threshold) int {
	info := LevelFromXP(xp, thresholds)
	if info.Tier+1 >= len(thresholds) {
		return 0
	}
	return max(thresholds[info.Tier+1].MinXP-xp, 0)
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

func clampPercent(p int) int {
	return min(max(p, 0), 100)
}
