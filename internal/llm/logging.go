package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/store"
)

// Recorder receives one observation per LLM request. The metrics layer
// implements it.
type Recorder interface {
	RecordLLMRequest(ctx context.Context, provider, purpose string, latency time.Duration, success bool)
}

// LoggingProvider is a decorator that records every LLM request as an event,
// a log line and, when a Recorder is set, a metric observation.
type LoggingProvider struct {
	inner     Provider
	name      string
	eventRepo store.EventRepo
	log       *zap.Logger
	recorder  Recorder
}

// LoggingOption configures a LoggingProvider.
type LoggingOption func(*LoggingProvider)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) LoggingOption {
	return func(l *LoggingProvider) { l.recorder = r }
}

// WithLogger sets the zap logger. The default discards.
func WithLogger(log *zap.Logger) LoggingOption {
	return func(l *LoggingProvider) {
		if log != nil {
			l.log = log
		}
	}
}

// WithLogging wraps a Provider with event logging. repo may be nil, in which
// case only the log line and metric are emitted.
func WithLogging(p Provider, name string, repo store.EventRepo, opts ...LoggingOption) Provider {
	l := &LoggingProvider{inner: p, name: name, eventRepo: repo, log: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := string(PurposeFrom(ctx))

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:  l.name,
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: latency.Milliseconds(),
		Success:   err == nil,
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
	}

	fields := []zap.Field{
		zap.String("provider", data.Provider),
		zap.String("model", data.Model),
		zap.String("purpose", purpose),
		zap.Duration("latency", latency),
		zap.Int("input_tokens", data.InputTokens),
		zap.Int("output_tokens", data.OutputTokens),
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Warn("llm request failed", append(fields, zap.Error(err))...)
	} else {
		l.log.Debug("llm request", fields...)
	}

	if l.recorder != nil {
		l.recorder.RecordLLMRequest(ctx, l.name, purpose, latency, err == nil)
	}

	// Log the event but don't fail the request if logging fails.
	if l.eventRepo != nil {
		if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn("failed to log LLM request event", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
