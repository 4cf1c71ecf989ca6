package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/llm"
	"github.com/abhisek/fluentpath/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect AI coach requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		if purpose != "" {
			p, err := llm.ParsePurpose(purpose)
			if err != nil {
				return err
			}
			purpose = string(p)
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.store.Events().QueryLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No LLM events found.")
			return nil
		}

		// Header.
		fmt.Fprintf(w, "%-6s  %-19s  %-16s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(w, strings.Repeat("─", 104))

		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗ " + truncate(e.ErrorMessage, 40)
			}
			fmt.Fprintf(w, "%-6d  %-19s  %-16s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 16),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.store.Events().LLMUsage(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "No LLM usage recorded yet.")
			return nil
		}

		fmt.Fprintln(w, "Usage by Provider and Purpose")
		fmt.Fprintln(w, strings.Repeat("─", 96))
		fmt.Fprintf(w, "%-10s  %-16s  %6s  %6s  %10s  %10s  %8s  %10s\n",
			"Provider", "Purpose", "Calls", "Failed", "Input", "Output", "Avg Ms", "Cost")
		fmt.Fprintln(w, strings.Repeat("─", 96))

		var totalCalls, totalIn, totalOut int
		var totalCost float64
		var unpriced []string
		for _, st := range stats {
			cost := "?"
			// Usage is aggregated per provider, so cost assumes the
			// currently configured model for each.
			model := llm.ModelFor(a.cfg.LLM, st.Provider)
			if mc := llm.LookupCost(model); mc != nil {
				c := mc.Cost(st.InputTokens, st.OutputTokens)
				totalCost += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, st.Provider)
			}
			fmt.Fprintf(w, "%-10s  %-16s  %6d  %6d  %10d  %10d  %8d  %10s\n",
				st.Provider, truncate(st.Purpose, 16), st.Requests, st.Failures,
				st.InputTokens, st.OutputTokens, st.AvgLatencyMs, cost)
			totalCalls += st.Requests
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}

		fmt.Fprintln(w, strings.Repeat("─", 96))
		label := "TOTAL"
		if len(unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(w, "%-28s  %6d  %6s  %10d  %10d  %8s  %10s\n",
			label, totalCalls, "", totalIn, totalOut, "", formatCost(totalCost))

		if len(unpriced) > 0 {
			fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (tutor-chat, writing-feedback)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
