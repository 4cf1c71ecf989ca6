package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all progress for the learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		w := cmd.OutOrStdout()
		if !yes {
			fmt.Fprintf(w, "Delete all progress for %q? [y/N] ", a.learnerID)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if ans := strings.ToLower(strings.TrimSpace(answer)); ans != "y" && ans != "yes" {
				fmt.Fprintln(w, "Aborted.")
				return nil
			}
		}

		if err := a.learners.Reset(cmd.Context(), a.learnerID); err != nil {
			return err
		}
		fmt.Fprintf(w, "Progress for %q deleted.\n", a.learnerID)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
