// Package theme holds the colors and styles shared by the CLI views.
package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/fluentpath/internal/pronunciation"
)

// Color palette
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Gold      = lipgloss.Color("#FACC15") // Yellow
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(14)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	Highlight = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Gold).
			Padding(0, 2)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Earned = lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim)

	Streak = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)

// BandStyle colors a pronunciation score by its feedback band.
func BandStyle(b pronunciation.Band) lipgloss.Style {
	switch b {
	case pronunciation.BandPerfect, pronunciation.BandExcellent:
		return Correct
	case pronunciation.BandGood:
		return lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	case pronunciation.BandKeepPracticing:
		return lipgloss.NewStyle().Foreground(Warning).Bold(true)
	default:
		return Incorrect
	}
}
