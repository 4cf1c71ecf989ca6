package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/ui/components"
)

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements and which are earned",
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

		lines := make([]string, 0, len(sum.Achievements))
		for _, v := range sum.Achievements {
			lines = append(lines, components.Badge(v.Emoji, v.Name, v.Description, v.Earned))
		}
		fmt.Fprintln(cmd.OutOrStdout(), components.Card("Achievements", strings.Join(lines, "\n"), cardWidth))
		return nil
	},
}
