package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/coach"
	"github.com/abhisek/fluentpath/internal/ui/components"
	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Get AI feedback on a piece of writing",
	Long:  "Reads your text from --file or stdin and scores its grammar, tone and style.",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		file, _ := cmd.Flags().GetString("file")
		if prompt == "" {
			prompt = coach.NextPrompt("", nil)
		}

		var r io.Reader = cmd.InOrStdin()
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()
			r = f
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, theme.Title.Render("Prompt: ")+prompt)
		if file == "" {
			fmt.Fprintln(w, theme.Hint.Render("Type your text, then press Ctrl-D."))
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}

		ctx := cmd.Context()
		provider, err := a.provider(ctx, nil)
		if err != nil {
			return err
		}
		fb, err := coach.NewWritingCoach(provider, coach.DefaultWritingConfig(), a.log).
			Review(ctx, prompt, string(data))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, renderFeedback(fb))

		res, err := a.learners.RecordWriting(ctx, a.learnerID)
		if err != nil {
			return err
		}
		printAward(w, res)
		return nil
	},
}

func init() {
	writeCmd.Flags().StringP("prompt", "p", "", "Writing prompt (default: a random one)")
	writeCmd.Flags().StringP("file", "f", "", "Read the text from a file instead of stdin")
}

func renderFeedback(fb *coach.Feedback) string {
	lines := []string{
		components.Field("Overall", fb.OverallScore),
		components.NewProgressBar("Grammar", float64(fb.GrammarScore)/100, true, cardWidth-4).View(),
		components.NewProgressBar("Tone   ", float64(fb.ToneScore)/100, true, cardWidth-4).View(),
		components.NewProgressBar("Style  ", float64(fb.StyleScore)/100, true, cardWidth-4).View(),
	}
	for _, c := range fb.Corrections {
		lines = append(lines, "",
			theme.Incorrect.Render("✗ "+c.Original),
			theme.Correct.Render("✓ "+c.Corrected),
			theme.Hint.Render(c.Explanation))
	}
	if len(fb.Strengths) > 0 {
		lines = append(lines, "", theme.Title.Render("Strengths"))
		for _, s := range fb.Strengths {
			lines = append(lines, "• "+s)
		}
	}
	if len(fb.Suggestions) > 0 {
		lines = append(lines, "", theme.Title.Render("Suggestions"))
		for _, s := range fb.Suggestions {
			lines = append(lines, "• "+s)
		}
	}
	return components.Card("Feedback", strings.Join(lines, "\n"), cardWidth)
}
