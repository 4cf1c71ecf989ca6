package postgres

import (
	"context"
	"fmt"

	"github.com/abhisek/fluentpath/internal/store"
)

type XPEventRepository struct {
	db DBTX
}

func NewXPEventRepository(db DBTX) *XPEventRepository {
	return &XPEventRepository{db: db}
}

func (r *XPEventRepository) AppendXP(ctx context.Context, data store.XPEventData) error {
	if err := ensureLearner(ctx, r.db, data.LearnerID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO xp_events (learner_id, amount, source, total_after, day)
		VALUES ($1, $2, $3, $4, $5)
	`, data.LearnerID, data.Amount, data.Source, data.TotalAfter, data.Day)
	if err != nil {
		return fmt.Errorf("append xp event: %w", err)
	}
	return nil
}

func (r *XPEventRepository) QueryXP(ctx context.Context, learnerID string, opts store.QueryOpts) ([]store.XPEventRecord, error) {
	query, args := withOpts(`
		SELECT learner_id, amount, source, total_after, day, sequence, created_at
		FROM xp_events
		WHERE learner_id = $1`, []any{learnerID}, opts)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query xp events: %w", err)
	}
	defer rows.Close()

	var out []store.XPEventRecord
	for rows.Next() {
		var e store.XPEventRecord
		if err := rows.Scan(&e.LearnerID, &e.Amount, &e.Source, &e.TotalAfter, &e.Day, &e.Sequence, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan xp event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *XPEventRepository) XPByDay(ctx context.Context, learnerID, sinceDay string) ([]store.DayTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT day, SUM(amount)::int
		FROM xp_events
		WHERE learner_id = $1 AND day >= $2
		GROUP BY day
		ORDER BY day
	`, learnerID, sinceDay)
	if err != nil {
		return nil, fmt.Errorf("query xp by day: %w", err)
	}
	defer rows.Close()

	var out []store.DayTotal
	for rows.Next() {
		var d store.DayTotal
		if err := rows.Scan(&d.Day, &d.XP); err != nil {
			return nil, fmt.Errorf("scan xp by day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// withOpts appends the QueryOpts filters, newest-first ordering and limit to
// a query whose WHERE clause already holds len(args) placeholders. Pass a
// base without WHERE by giving it a trailing "WHERE TRUE".
func withOpts(base string, args []any, opts store.QueryOpts) (string, []any) {
	q := base
	add := func(cond string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(" AND %s $%d", cond, len(args))
	}
	if opts.After > 0 {
		add("sequence >", opts.After)
	}
	if opts.Before > 0 {
		add("sequence <", opts.Before)
	}
	if !opts.From.IsZero() {
		add("created_at >=", opts.From)
	}
	if !opts.To.IsZero() {
		add("created_at <=", opts.To)
	}
	q += " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return q, args
}
