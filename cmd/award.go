package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/store"
	"github.com/abhisek/fluentpath/internal/ui/components"
	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var awardCmd = &cobra.Command{
	Use:   "award <amount>",
	Short: "Award XP to the learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}
		source, _ := cmd.Flags().GetString("source")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.learners.AwardXP(cmd.Context(), a.learnerID, amount, source)
		if err != nil {
			return err
		}
		printAward(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	awardCmd.Flags().StringP("source", "s", "manual", "Source recorded with the XP event")
}

// printAward reports an award and celebrates level-ups and unlocks.
func printAward(w io.Writer, res *learner.AwardResult) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n",
		theme.Correct.Render(fmt.Sprintf("+%d XP", res.Awarded)),
		theme.Body.Render(fmt.Sprintf("%d XP total · %s", res.XP, res.Level.Level)),
		theme.Streak.Render(fmt.Sprintf("🔥 %d", res.Streak)),
	)

	var lines []string
	if res.LevelUp {
		lines = append(lines, theme.Earned.Render(fmt.Sprintf("Level up! You reached %s %s.", res.Level.Level, res.Level.Name)))
	}
	for _, ach := range res.Unlocked {
		lines = append(lines, components.Badge(ach.Emoji, ach.Name, ach.Description, true))
	}
	if len(lines) > 0 {
		fmt.Fprintln(w, components.Celebration(lines, cardWidth))
	}
}

// loadSummary returns nil without an error when the learner has no
// progress yet, after telling the user so.
func loadSummary(cmd *cobra.Command, a *app) (*learner.Summary, error) {
	sum, err := a.learners.Summary(cmd.Context(), a.learnerID)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "No progress recorded for %q yet.\n", a.learnerID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return sum, nil
}
