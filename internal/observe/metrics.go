// Package observe provides OpenTelemetry metrics and tracing for FluentPath,
// exported to Prometheus, plus the HTTP middleware that ties them to request
// logs.
//
// Tests should build [Metrics] with [NewMetrics] over a ManualReader-backed
// provider. A nil *Metrics is valid and records nothing.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/abhisek/fluentpath"

// Metrics holds the application's instruments.
type Metrics struct {
	XPAwarded            metric.Int64Counter
	LevelUps             metric.Int64Counter
	AchievementsUnlocked metric.Int64Counter

	// LessonsCompleted counts graded lessons. Attribute: passed.
	LessonsCompleted metric.Int64Counter

	// StreakLength records the streak after every activity.
	StreakLength metric.Int64Histogram

	// PronunciationScore records every comparison. Attribute: band.
	PronunciationScore metric.Int64Histogram

	// LLMRequests counts provider calls. Attributes: provider, purpose, status.
	LLMRequests metric.Int64Counter
	LLMDuration metric.Float64Histogram

	// HTTPRequestDuration. Attributes: method, route, status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

var streakBuckets = []float64{0, 1, 2, 3, 5, 7, 14, 30, 60, 100, 365}

var scoreBuckets = []float64{0, 25, 50, 75, 90, 100}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.XPAwarded, err = m.Int64Counter("fluentpath.xp.awarded",
		metric.WithDescription("Experience points awarded, by source kind."),
		metric.WithUnit("{xp}"),
	); err != nil {
		return nil, err
	}
	if met.LevelUps, err = m.Int64Counter("fluentpath.level_ups",
		metric.WithDescription("Activities that moved a learner into a higher level."),
	); err != nil {
		return nil, err
	}
	if met.AchievementsUnlocked, err = m.Int64Counter("fluentpath.achievements.unlocked",
		metric.WithDescription("Achievements unlocked, by achievement id."),
	); err != nil {
		return nil, err
	}
	if met.LessonsCompleted, err = m.Int64Counter("fluentpath.lessons.completed",
		metric.WithDescription("Graded lesson attempts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.StreakLength, err = m.Int64Histogram("fluentpath.streak.length",
		metric.WithDescription("Learner streak length after an activity."),
		metric.WithUnit("d"),
		metric.WithExplicitBucketBoundaries(streakBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PronunciationScore, err = m.Int64Histogram("fluentpath.pronunciation.score",
		metric.WithDescription("Pronunciation comparison scores."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMRequests, err = m.Int64Counter("fluentpath.llm.requests",
		metric.WithDescription("LLM provider requests by provider, purpose and status."),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("fluentpath.llm.duration",
		metric.WithDescription("Latency of LLM requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("fluentpath.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordAward records the result of one XP award.
func (m *Metrics) RecordAward(ctx context.Context, source string, amount, streak int, levelUp bool, unlocked []string) {
	if m == nil {
		return
	}
	m.XPAwarded.Add(ctx, int64(amount), metric.WithAttributes(attribute.String("source", source)))
	m.StreakLength.Record(ctx, int64(streak))
	if levelUp {
		m.LevelUps.Add(ctx, 1)
	}
	for _, id := range unlocked {
		m.AchievementsUnlocked.Add(ctx, 1, metric.WithAttributes(attribute.String("achievement", id)))
	}
}

// RecordLesson records one graded lesson attempt.
func (m *Metrics) RecordLesson(ctx context.Context, passed bool) {
	if m == nil {
		return
	}
	m.LessonsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("passed", passed)))
}

// RecordPronunciation records one comparison score.
func (m *Metrics) RecordPronunciation(ctx context.Context, score int, band string) {
	if m == nil {
		return
	}
	m.PronunciationScore.Record(ctx, int64(score), metric.WithAttributes(attribute.String("band", band)))
}

// RecordLLMRequest satisfies llm.Recorder.
func (m *Metrics) RecordLLMRequest(ctx context.Context, provider, purpose string, latency time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("purpose", purpose),
		attribute.String("status", status),
	))
	m.LLMDuration.Record(ctx, latency.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("purpose", purpose),
	))
}
