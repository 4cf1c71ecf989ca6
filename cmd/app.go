package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/config"
	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/llm"
	"github.com/abhisek/fluentpath/internal/logger"
	"github.com/abhisek/fluentpath/internal/observe"
	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/store"
	"github.com/abhisek/fluentpath/internal/store/postgres"
	"github.com/abhisek/fluentpath/internal/vocab"
)

var errLLMDisabled = errors.New("no LLM provider configured: set GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")

// backend is implemented by both the SQLite and the PostgreSQL store.
type backend interface {
	learner.Store
	Events() store.EventRepo
	Vocabulary() store.VocabularyRepo
	Ping(ctx context.Context) error
	Close() error
}

// app holds the dependencies shared by every command.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	store     backend
	learners  *learner.Service
	vocab     *vocab.Service
	learnerID string
}

// setup loads configuration, opens the store and builds the learner service.
func setup(cmd *cobra.Command, opts ...learner.Option) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Options{ConfigFile: configFile})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB.Driver = "sqlite"
		cfg.DB.Path = p
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	engine := progression.NewEngine(
		progression.WithThresholds(cfg.Levels),
		progression.WithRewards(cfg.Rewards),
	)
	base := []learner.Option{
		learner.WithEngine(engine),
		learner.WithLocation(loc),
		learner.WithLogger(log),
	}

	id := cfg.Learner
	if v, _ := cmd.Flags().GetString("learner"); v != "" {
		id = v
	}

	return &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		learners:  learner.NewService(st, append(base, opts...)...),
		vocab:     vocab.NewService(st.Vocabulary(), vocab.WithLogger(log)),
		learnerID: id,
	}, nil
}

// Close releases the store and flushes the logger.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// provider builds the configured LLM provider with request logging.
func (a *app) provider(ctx context.Context, metrics *observe.Metrics) (llm.Provider, error) {
	if !a.cfg.LLMEnabled() {
		return nil, errLLMDisabled
	}
	opts := []llm.LoggingOption{llm.WithLogger(a.log)}
	if metrics != nil {
		opts = append(opts, llm.WithRecorder(metrics))
	}
	return llm.NewProvider(ctx, a.cfg.LLM, a.store.Events(), opts...)
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.DB.Driver {
	case "postgres":
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, err
		}
		st, err := postgres.Open(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return st, nil
	default:
		path, err := resolveDBPath(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return st, nil
	}
}

// resolveDBPath returns path when set (the --db flag or database.path), then
// FLUENTPATH_DB, then the default XDG path.
func resolveDBPath(path string) (string, error) {
	if path != "" {
		return path, store.EnsureDir(path)
	}
	return store.DefaultDBPath()
}
