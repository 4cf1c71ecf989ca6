package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/ui/components"
	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var levelCmd = &cobra.Command{
	Use:     "level [xp]",
	Aliases: []string{"levels"},
	Short:   "Show the level for an XP total, or list levels and rewards",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e := a.learners.Engine()
		if len(args) == 1 {
			xp, err := strconv.Atoi(args[0])
			if err != nil || xp < 0 {
				return fmt.Errorf("invalid XP %q: must be a non-negative integer", args[0])
			}
			info := e.Level(xp)
			lines := []string{
				components.Field("Level", info.Level+" "+info.Name),
				components.LevelBar(info.Level, info.ProgressToNext, cardWidth-4).View(),
				components.Field("Next", info.NextLevel),
			}
			fmt.Fprintln(cmd.OutOrStdout(), components.Card(fmt.Sprintf("%d XP", xp), strings.Join(lines, "\n"), cardWidth))
			return nil
		}

		var lines []string
		for _, t := range e.Thresholds() {
			lines = append(lines, fmt.Sprintf("%s  %-20s %s",
				theme.Title.Render(fmt.Sprintf("%-3s", t.Level)), t.Name, theme.Subtitle.Render(fmt.Sprintf("%d XP", t.MinXP))))
		}

		r := e.Rewards()
		rewards := []string{
			components.Field("Lesson", r.LessonComplete),
			components.Field("Perfect quiz", fmt.Sprintf("+%d", r.QuizPerfect)),
			components.Field("Passed quiz", fmt.Sprintf("+%d (≥%d%%)", r.QuizPass, r.PassPercent)),
			components.Field("Speaking", r.SpeakingPractice),
			components.Field("Pronunciation", r.Pronunciation),
			components.Field("Writing", r.WritingPractice),
			components.Field("Chat", r.ChatSession),
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, components.Card("Levels", strings.Join(lines, "\n"), cardWidth))
		fmt.Fprintln(out, components.Card("XP rewards", strings.Join(rewards, "\n"), cardWidth))
		return nil
	},
}
