package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/ui/components"
	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show level, streak and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := loadSummary(cmd, a)
		if sum == nil || err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, components.Card(sum.LearnerID, renderProgress(sum), cardWidth))
		fmt.Fprintln(out, components.Card("Today", renderToday(sum), cardWidth))
		if len(sum.XPByDay) > 0 {
			fmt.Fprintln(out, components.Card(fmt.Sprintf("Last %d days", learner.RecentDays), renderDays(sum), cardWidth))
		}
		return nil
	},
}

func renderProgress(sum *learner.Summary) string {
	lines := []string{
		components.Field("Level", sum.Level.Level+" "+sum.Level.Name),
		components.Field("XP", sum.Progress.XP),
		components.LevelBar(sum.Level.Level, sum.Level.ProgressToNext, cardWidth-4).View(),
	}
	if sum.Level.NextLevel != progression.MaxLevel {
		lines = append(lines, theme.Hint.Render(fmt.Sprintf("%d XP to %s", sum.XPToNext, sum.Level.NextLevel)))
	}

	streak := "no active streak"
	if sum.StreakState == progression.StreakActive {
		streak = theme.Streak.Render(fmt.Sprintf("🔥 %d day(s)", sum.CurrentStreak))
	}
	lines = append(lines,
		components.Field("Streak", streak),
		components.Field("Lessons", sum.Progress.LessonsCompleted),
		components.Field("Chats", sum.Progress.ChatSessions),
	)

	earned := 0
	for _, v := range sum.Achievements {
		if v.Earned {
			earned++
		}
	}
	lines = append(lines, components.Field("Achievements", fmt.Sprintf("%d/%d", earned, len(sum.Achievements))))
	return strings.Join(lines, "\n")
}

func renderToday(sum *learner.Summary) string {
	t := sum.Today
	mark := func(ok bool) string {
		if ok {
			return theme.Correct.Render("✓")
		}
		return theme.Locked.Render("·")
	}
	return strings.Join([]string{
		components.Field("Lesson", mark(t.Lesson)),
		components.Field("Practice", mark(t.Practice)),
		components.Field("Quiz", mark(t.Quiz)),
		components.Field("Chat", mark(t.Chat)),
		components.Field("Writing", mark(t.Writing)),
		components.Field("Minutes", t.Minutes),
	}, "\n")
}

func renderDays(sum *learner.Summary) string {
	peak := 1
	for _, d := range sum.XPByDay {
		peak = max(peak, d.XP)
	}
	lines := make([]string, 0, len(sum.XPByDay))
	for _, d := range sum.XPByDay {
		bar := components.NewProgressBar(d.Day, float64(d.XP)/float64(peak), false, cardWidth-12)
		lines = append(lines, fmt.Sprintf("%s %5d", bar.View(), d.XP))
	}
	return strings.Join(lines, "\n")
}
