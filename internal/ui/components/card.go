package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/fluentpath/internal/ui/theme"
)

// ContentWidth clamps a terminal width to the width cards are drawn at.
func ContentWidth(termWidth int) int {
	// Leave room for the card border (2) and padding (4).
	return min(max(termWidth-6, 30), 64)
}

// Card wraps content in a rounded border at the given content width.
func Card(title, content string, cw int) string {
	body := content
	if title != "" {
		body = theme.Title.Render(title) + "\n" + content
	}
	return theme.Card.Width(cw).Render(body)
}

// Celebration is a highlighted card for level-ups and new achievements.
func Celebration(lines []string, cw int) string {
	return theme.Highlight.Width(cw).Render(strings.Join(lines, "\n"))
}

// Field renders a "label  value" row.
func Field(label string, value any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Label.Render(label),
		theme.Body.Render(fmt.Sprint(value)),
	)
}

// Badge renders one achievement line: earned ones in gold, locked ones dim.
func Badge(icon, name, description string, earned bool) string {
	if earned {
		return theme.Earned.Render(icon+" "+name) + "  " + theme.Subtitle.Render(description)
	}
	return theme.Locked.Render("· " + name + "  " + description)
}
