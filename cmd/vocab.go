package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/ui/theme"
	"github.com/abhisek/fluentpath/internal/vocab"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Learn words and review them on a schedule",
}

var vocabAddCmd = &cobra.Command{
	Use:   "add <word>",
	Short: "Add a word or phrase to your vocabulary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meaning, _ := cmd.Flags().GetString("meaning")
		example, _ := cmd.Flags().GetString("example")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		words, err := a.vocab.Learn(cmd.Context(), a.learnerID, []vocab.Entry{
			{Word: args[0], Meaning: meaning, Example: example},
		})
		if err != nil {
			return err
		}
		w := words[0]
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q. Next review in %d day(s).\n",
			w.Word, w.DaysUntilReview(time.Now()))
		return nil
	},
}

var vocabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your words and when each is due",
	RunE: func(cmd *cobra.Command, args []string) error {
		dueOnly, _ := cmd.Flags().GetBool("due")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var words []vocab.Word
		if dueOnly {
			words, err = a.vocab.Due(cmd.Context(), a.learnerID, 0)
		} else {
			words, err = a.vocab.List(cmd.Context(), a.learnerID)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(words) == 0 {
			fmt.Fprintln(out, "No words yet. Add one with `fluentpath vocab add`.")
			return nil
		}

		now := time.Now()
		fmt.Fprintf(out, "%-24s  %-10s  %5s  %s\n", "Word", "Status", "Days", "Meaning")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, w := range words {
			fmt.Fprintf(out, "%-24s  %-10s  %5d  %s\n",
				truncate(w.Word, 24), w.Status(now), w.DaysUntilReview(now), w.Meaning)
		}
		return nil
	},
}

var vocabReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review the words that are due",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		due, err := a.vocab.Due(cmd.Context(), a.learnerID, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(due) == 0 {
			fmt.Fprintln(out, "Nothing to review. Come back later!")
			return nil
		}

		in := bufio.NewReader(cmd.InOrStdin())
		remembered := 0
		for i, w := range due {
			fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(due), theme.Highlight.Render(w.Word))
			fmt.Fprint(out, "Do you remember it? [y/n] ")
			line, err := in.ReadString('\n')
			ans := strings.ToLower(strings.TrimSpace(line))
			if ans == "" && err != nil {
				break
			}
			ok := ans == "y" || ans == "yes"

			updated, rerr := a.vocab.Review(cmd.Context(), a.learnerID, w.Word, ok)
			if rerr != nil {
				return rerr
			}
			if w.Meaning != "" {
				fmt.Fprintln(out, theme.Hint.Render("Meaning: "+w.Meaning))
			}
			if w.Example != "" {
				fmt.Fprintln(out, theme.Hint.Render("Example: "+w.Example))
			}
			if ok {
				remembered++
				fmt.Fprintln(out, theme.Correct.Render(fmt.Sprintf("Next review in %d day(s).", updated.CurrentIntervalDays())))
			} else {
				fmt.Fprintln(out, theme.Incorrect.Render("Back to the start. You will see it again tomorrow."))
			}
		}
		fmt.Fprintf(out, "\nRemembered %d of %d.\n", remembered, len(due))
		return nil
	},
}

func init() {
	vocabAddCmd.Flags().StringP("meaning", "m", "", "What the word means")
	vocabAddCmd.Flags().StringP("example", "e", "", "An example sentence")
	vocabListCmd.Flags().Bool("due", false, "Only show words due for review")
	vocabReviewCmd.Flags().IntP("limit", "n", 20, "Maximum number of words to review")

	vocabCmd.AddCommand(vocabAddCmd, vocabListCmd, vocabReviewCmd)
}
