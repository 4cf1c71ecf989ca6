package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson <lesson-id>",
	Short: "Record a completed lesson quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		correct, _ := cmd.Flags().GetInt("correct")
		total, _ := cmd.Flags().GetInt("total")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.learners.CompleteLesson(cmd.Context(), a.learnerID, args[0], correct, total)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		r := out.Result
		verdict := theme.Incorrect.Render("Not passed")
		switch {
		case r.Perfect:
			verdict = theme.Earned.Render("Perfect score!")
		case r.Passed:
			verdict = theme.Correct.Render("Passed")
		}
		fmt.Fprintf(w, "%s  %d/%d (%d%%)\n", verdict, correct, total, r.Percentage)
		if out.FirstPass {
			fmt.Fprintln(w, theme.Hint.Render("First pass of this lesson."))
		}
		printAward(w, out.Award)
		return nil
	},
}

func init() {
	lessonCmd.Flags().IntP("correct", "c", 0, "Number of correct answers")
	lessonCmd.Flags().IntP("total", "t", 0, "Number of questions")
	_ = lessonCmd.MarkFlagRequired("correct")
	_ = lessonCmd.MarkFlagRequired("total")
}
