package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent XP events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.learners.History(cmd.Context(), a.learnerID, limit)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No XP events found.")
			return nil
		}

		fmt.Fprintf(w, "%-6s  %-19s  %6s  %s\n", "Seq", "Timestamp", "XP", "Source")
		fmt.Fprintln(w, strings.Repeat("─", 60))
		for _, e := range events {
			fmt.Fprintf(w, "%-6d  %-19s  %+6d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Amount,
				e.Source,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}
