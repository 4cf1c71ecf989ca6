package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by the global sequence counter.
type eventRepo struct {
	s *Store
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		seqNum, err := r.s.seq.Next(ctx, tx)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		q, args := builder().Insert("llm_request_events").
			Columns("sequence", "provider", "model", "purpose", "input_tokens", "output_tokens",
				"latency_ms", "success", "error_message", "created_at").
			Values(seqNum, data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
				data.LatencyMs, data.Success, data.ErrorMessage, time.Now().UTC().UnixMilli()).
			Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("save LLM request event: %w", err)
		}
		return nil
	})
}

func (r *eventRepo) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	sel := builder().Select("provider", "model", "purpose", "input_tokens", "output_tokens",
		"latency_ms", "success", "error_message", "sequence", "created_at").
		From(entsql.Table("llm_request_events")).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts)

	q, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM request events: %w", err)
	}
	defer rows.Close()

	var records []LLMRequestEventRecord
	for rows.Next() {
		var (
			rec LLMRequestEventRecord
			ts  int64
		)
		if err := rows.Scan(&rec.Provider, &rec.Model, &rec.Purpose, &rec.InputTokens, &rec.OutputTokens,
			&rec.LatencyMs, &rec.Success, &rec.ErrorMessage, &rec.Sequence, &ts); err != nil {
			return nil, fmt.Errorf("scan LLM request event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) LLMUsage(ctx context.Context) ([]LLMUsageStats, error) {
	q, args := builder().Select(
		"provider",
		"purpose",
		entsql.Count("*"),
		"SUM(CASE WHEN success THEN 0 ELSE 1 END)",
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		"CAST(AVG(latency_ms) AS INTEGER)",
	).
		From(entsql.Table("llm_request_events")).
		GroupBy("provider", "purpose").
		OrderBy("provider", "purpose").
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var stats []LLMUsageStats
	for rows.Next() {
		var st LLMUsageStats
		if err := rows.Scan(&st.Provider, &st.Purpose, &st.Requests, &st.Failures,
			&st.InputTokens, &st.OutputTokens, &st.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
