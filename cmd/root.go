package cmd

import (
	"io"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/ui/components"
)

var rootCmd = &cobra.Command{
	Use:   "fluentpath",
	Short: "English practice tracker with an AI coach",
	Long: "FluentPath tracks XP, CEFR-style levels, daily streaks and achievements for English\n" +
		"learners, scores pronunciation attempts, and coaches conversation and writing.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cardWidth = components.ContentWidth(termWidth(cmd.OutOrStdout()))
	},
}

// defaultTermWidth is assumed when output is not a terminal.
const defaultTermWidth = 62

// cardWidth is the content width of every card the CLI draws. It follows
// the terminal width when stdout is one.
var cardWidth = components.ContentWidth(defaultTermWidth)

func termWidth(w io.Writer) int {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(f.Fd()) {
		return defaultTermWidth
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./config/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FLUENTPATH_DB env var)")
	rootCmd.PersistentFlags().StringP("learner", "l", "", "Learner ID (default from config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(achievementsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(awardCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(pronounceCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
