package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/fluentpath/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64 // 0..1
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// LevelBar renders progress toward the next level from a 0..100 value.
func LevelBar(level string, progressToNext, width int) ProgressBar {
	return NewProgressBar(level, float64(progressToNext)/100, true, width)
}

// Filled returns the number of cells drawn as filled for a bar of width cells.
func (p ProgressBar) Filled(width int) int {
	return min(max(int(float64(width)*p.Percent), 0), width)
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}

	barWidth := max(p.Width-labelWidth-percentWidth, 4)
	filled := p.Filled(barWidth)

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowPercent {
		pct := min(max(int(p.Percent*100), 0), 100)
		result += theme.Subtitle.Render(fmt.Sprintf("  %d%%", pct))
	}

	return result
}
