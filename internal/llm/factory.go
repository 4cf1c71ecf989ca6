package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/fluentpath/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, opts ...LoggingOption) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → timeout → base
	bounded := WithTimeout(base, cfg.Timeout)
	logged := WithLogging(bounded, cfg.Provider, eventRepo, opts...)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

// Available lists the providers whose credentials are present in cfg.
func Available(cfg Config) []string {
	var out []string
	for _, name := range []string{"gemini", "openai", "anthropic"} {
		c := cfg
		c.Provider = name
		if c.HasKey() {
			out = append(out, name)
		}
	}
	return out
}

// resolveModel maps a short config name to a provider model ID. Unknown
// names are passed through so full IDs work too.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
