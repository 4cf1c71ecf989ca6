package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/coach"
	"github.com/abhisek/fluentpath/internal/llm"
	"github.com/abhisek/fluentpath/internal/speech"
	"github.com/abhisek/fluentpath/internal/ui/theme"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Practice conversation with the AI tutor",
	Long: "Chat with the AI tutor, one message per line. An empty line, /quit or EOF ends the chat.\n" +
		"Use --scenario to start a roleplay (cafe, airport, doctor, shopping, phone, restaurant).",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioID, _ := cmd.Flags().GetString("scenario")
		voice, _ := cmd.Flags().GetBool("voice")

		var history []coach.Turn
		if scenarioID != "" {
			sc, ok := coach.ScenarioByID(scenarioID)
			if !ok {
				return fmt.Errorf("unknown scenario %q", scenarioID)
			}
			history = append(history, coach.Turn{Role: llm.RoleUser, Text: sc.Prompt})
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		provider, err := a.provider(ctx, nil)
		if err != nil {
			return err
		}
		tutor := coach.NewTutor(provider, coach.DefaultTutorConfig(), a.log)

		w := cmd.OutOrStdout()
		speaker := speech.NewWriterSpeaker(w, theme.Title.Render("Tutor: "))
		listener := speech.NewReaderListener(cmd.InOrStdin())
		credited := false

		ask := func() error {
			reply, err := tutor.Reply(ctx, history)
			if err != nil {
				a.log.Debug("tutor reply failed", zap.Error(err))
				history = history[:len(history)-1]
				return speaker.Speak(ctx, coach.FallbackReply, speech.SpeakConfig{})
			}
			history = append(history, coach.Turn{Role: llm.RoleAssistant, Text: reply})
			if err := speaker.Speak(ctx, reply, speech.SpeakConfig{}); err != nil {
				return err
			}
			if credited {
				return nil
			}
			credited = true
			res, err := a.learners.RecordChat(ctx, a.learnerID)
			if err != nil {
				return err
			}
			printAward(w, res)
			if voice {
				res, err := a.learners.RecordSpeaking(ctx, a.learnerID)
				if err != nil {
					return err
				}
				printAward(w, res)
			}
			return nil
		}

		if len(history) > 0 {
			if err := ask(); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(w, theme.Hint.Render("Say hello to start. /quit to exit."))
		}

		for {
			fmt.Fprint(w, theme.Subtitle.Render("You: "))
			line, err := listener.Listen(ctx, speech.ListenConfig{})
			if err != nil {
				return err
			}
			if line == "" || strings.EqualFold(line, "/quit") {
				return nil
			}
			history = append(history, coach.Turn{Role: llm.RoleUser, Text: line})
			if err := ask(); err != nil {
				return err
			}
		}
	},
}

func init() {
	chatCmd.Flags().StringP("scenario", "s", "", "Roleplay scenario to open with")
	chatCmd.Flags().Bool("voice", false, "Treat input as spoken transcripts and also credit speaking practice")
}
