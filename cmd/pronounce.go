package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fluentpath/internal/pronunciation"
	"github.com/abhisek/fluentpath/internal/speech"
	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var pronounceCmd = &cobra.Command{
	Use:   "pronounce <phrase>",
	Short: "Score a spoken attempt at a phrase",
	Long: "Shows the target phrase, reads the transcript of your attempt from stdin\n" +
		"(one line, e.g. piped from a speech recognizer), and scores it.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.Join(args, " ")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		w := cmd.OutOrStdout()
		speaker := speech.NewWriterSpeaker(w, theme.Title.Render("Say: "))
		if err := speaker.Speak(ctx, target, speech.SpeakConfig{}); err != nil {
			return err
		}

		listener := speech.NewReaderListener(cmd.InOrStdin())
		spoken, err := listener.Listen(ctx, speech.ListenConfig{})
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		out, err := a.learners.PracticePronunciation(ctx, a.learnerID, spoken, target)
		if err != nil {
			return err
		}
		printComparison(w, out.Comparison)
		printAward(w, out.Award)
		return nil
	},
}

func printComparison(w io.Writer, c pronunciation.Comparison) {
	style := theme.BandStyle(c.Band)
	if !c.SpeechDetected() {
		fmt.Fprintln(w, style.Render(c.Feedback))
		return
	}
	fmt.Fprintf(w, "%s  %s\n", style.Render(fmt.Sprintf("%d/100", c.Score)), c.Feedback)

	var words []string
	for _, h := range c.Words {
		switch h.Kind {
		case pronunciation.HintExact:
			words = append(words, theme.Correct.Render(h.Target))
		case pronunciation.HintSoundsAlike:
			words = append(words, theme.Body.Render(h.Target)+theme.Hint.Render("≈"+h.Spoken))
		case pronunciation.HintMissing:
			words = append(words, theme.Locked.Render("["+h.Target+"]"))
		default:
			words = append(words, theme.Incorrect.Render(h.Target)+theme.Hint.Render("→"+h.Spoken))
		}
	}
	if len(words) > 0 {
		fmt.Fprintln(w, strings.Join(words, " "))
	}
}
