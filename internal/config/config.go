package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/fluentpath/internal/llm"
	"github.com/abhisek/fluentpath/internal/progression"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

const envPrefix = "FLUENTPATH"

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env      string `mapstructure:"env"`       // local, development, production
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error
	Timezone string `mapstructure:"timezone"`  // IANA name used to derive calendar days
	Learner  string `mapstructure:"learner"`   // default learner id for CLI commands

	DB      DB                      `mapstructure:"database"`
	Server  Server                  `mapstructure:"server"`
	Rewards progression.Rewards     `mapstructure:"rewards"`
	Levels  []progression.Threshold `mapstructure:"levels"`
	LLM     llm.Config              `mapstructure:"llm"`
}

// DB contains database-related configuration parameters.
type DB struct {
	Driver          string        `mapstructure:"driver"`            // sqlite or postgres
	Path            string        `mapstructure:"path"`              // SQLite file path
	URL             string        `mapstructure:"url"`               // PostgreSQL connection string
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the PostgreSQL connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", fmt.Errorf("%w: FLUENTPATH_DATABASE_URL or DATABASE_URL", ErrMissingEnvironmentVariables)
	}
	return db.URL, nil
}

// Server holds HTTP listener settings.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Options tweak where Load looks for configuration.
type Options struct {
	// ConfigFile, when set, is read instead of searching for config.yaml.
	ConfigFile string
	// EnvFile is the dotenv file loaded before reading the environment.
	// Default: ".env". A missing file is not an error.
	EnvFile string
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from .env, config files and environment variables.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", envFile, err)
	}

	v := viper.New()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Standard variables understood by other tools.
	_ = v.BindEnv("database.url", "FLUENTPATH_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("env", "FLUENTPATH_ENV", "APP_ENV")
	_ = v.BindEnv("llm.gemini.api_key", "FLUENTPATH_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.openai.api_key", "FLUENTPATH_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.anthropic.api_key", "FLUENTPATH_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if len(cfg.Levels) == 0 {
		cfg.Levels = progression.DefaultThresholds
	}
	if cfg.LLM.Provider == "" {
		if avail := llm.Available(cfg.LLM); len(avail) > 0 {
			cfg.LLM.Provider = avail[0]
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that Unmarshal cannot.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := progression.ValidateThresholds(c.Levels); err != nil {
		return fmt.Errorf("levels: %w", err)
	}
	if c.Rewards.PassPercent < 0 || c.Rewards.PassPercent > 100 {
		return fmt.Errorf("rewards.pass_percent must be within 0..100, got %d", c.Rewards.PassPercent)
	}
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if _, err := c.DB.DSN(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	return nil
}

// LLMEnabled reports whether a provider is configured with credentials.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.HasKey()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("learner", "default")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	r := progression.DefaultRewards()
	v.SetDefault("rewards.lesson_complete", r.LessonComplete)
	v.SetDefault("rewards.quiz_perfect", r.QuizPerfect)
	v.SetDefault("rewards.quiz_pass", r.QuizPass)
	v.SetDefault("rewards.speaking_practice", r.SpeakingPractice)
	v.SetDefault("rewards.writing_practice", r.WritingPractice)
	v.SetDefault("rewards.chat_session", r.ChatSession)
	v.SetDefault("rewards.pronunciation", r.Pronunciation)
	v.SetDefault("rewards.pass_percent", r.PassPercent)
	v.SetDefault("rewards.award_base_on_fail", r.AwardBaseOnFail)

	l := llm.DefaultConfig()
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", l.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", l.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", l.Gemini.Model)
	v.SetDefault("llm.timeout", l.Timeout.String())
	v.SetDefault("llm.retry.max_attempts", l.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", l.Retry.InitialWait.String())
	v.SetDefault("llm.retry.max_wait", l.Retry.MaxWait.String())
	v.SetDefault("llm.retry.multiplier", l.Retry.Multiplier)
}
