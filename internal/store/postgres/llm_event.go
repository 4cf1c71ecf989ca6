package postgres

import (
	"context"
	"fmt"

	"github.com/abhisek/fluentpath/internal/store"
)

type EventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO llm_request_events (
			provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
		data.LatencyMs, data.Success, data.ErrorMessage)
	if err != nil {
		return fmt.Errorf("append LLM request event: %w", err)
	}
	return nil
}

func (r *EventRepository) QueryLLMRequests(ctx context.Context, opts store.QueryOpts) ([]store.LLMRequestEventRecord, error) {
	query, args := withOpts(`
		SELECT provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, sequence, created_at
		FROM llm_request_events
		WHERE TRUE`, nil, opts)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM request events: %w", err)
	}
	defer rows.Close()

	var out []store.LLMRequestEventRecord
	for rows.Next() {
		var e store.LLMRequestEventRecord
		if err := rows.Scan(&e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
			&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.Sequence, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan LLM request event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepository) LLMUsage(ctx context.Context) ([]store.LLMUsageStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT provider, purpose,
		       COUNT(*)::int,
		       COUNT(*) FILTER (WHERE NOT success)::int,
		       COALESCE(SUM(input_tokens), 0)::int,
		       COALESCE(SUM(output_tokens), 0)::int,
		       COALESCE(AVG(latency_ms), 0)::bigint
		FROM llm_request_events
		GROUP BY provider, purpose
		ORDER BY provider, purpose
	`)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var out []store.LLMUsageStats
	for rows.Next() {
		var s store.LLMUsageStats
		if err := rows.Scan(&s.Provider, &s.Purpose, &s.Requests, &s.Failures,
			&s.InputTokens, &s.OutputTokens, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
