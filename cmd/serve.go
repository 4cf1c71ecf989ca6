package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/coach"
	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/observe"
	"github.com/abhisek/fluentpath/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		obs, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Shutdown(sctx)
		}()

		a, err := setup(cmd, learner.WithMetrics(obs.Metrics))
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []server.Option{
			server.WithLogger(a.log),
			server.WithMetrics(obs.Metrics),
			server.WithMetricsHandler(obs.Handler()),
			server.WithReadiness(server.Checker{Name: "database", Check: a.store.Ping}),
			server.WithVocabulary(a.vocab),
		}

		provider, err := a.provider(ctx, obs.Metrics)
		switch {
		case errors.Is(err, errLLMDisabled):
			a.log.Warn("AI coach disabled", zap.Error(err))
		case err != nil:
			return fmt.Errorf("create LLM provider: %w", err)
		default:
			opts = append(opts, server.WithCoaches(
				coach.NewTutor(provider, coach.DefaultTutorConfig(), a.log),
				coach.NewWritingCoach(provider, coach.DefaultWritingConfig(), a.log),
			))
			a.log.Info("AI coach enabled", zap.String("provider", a.cfg.LLM.Provider), zap.String("model", provider.ModelID()))
		}

		addr := a.cfg.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}
		return server.New(a.learners, opts...).ListenAndServe(ctx, addr, a.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
