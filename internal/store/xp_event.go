package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// xpEventRepo implements XPEventRepo backed by the global sequence counter.
type xpEventRepo struct {
	s *Store
}

func (r *xpEventRepo) AppendXP(ctx context.Context, data XPEventData) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		return appendXP(ctx, tx, r.s.seq, data, time.Now().UTC())
	})
}

func appendXP(ctx context.Context, tx *sql.Tx, seq *sequenceCounter, data XPEventData, now time.Time) error {
	if err := ensureLearner(ctx, tx, data.LearnerID, now); err != nil {
		return err
	}

	seqNum, err := seq.Next(ctx, tx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	q, args := builder().Insert("xp_events").
		Columns("sequence", "learner_id", "amount", "source", "total_after", "day", "created_at").
		Values(seqNum, data.LearnerID, data.Amount, data.Source, data.TotalAfter, data.Day, now.UnixMilli()).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save xp event: %w", err)
	}
	return nil
}

func (r *xpEventRepo) QueryXP(ctx context.Context, learnerID string, opts QueryOpts) ([]XPEventRecord, error) {
	sel := builder().Select("learner_id", "amount", "source", "total_after", "day", "sequence", "created_at").
		From(entsql.Table("xp_events")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts)

	q, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query xp events: %w", err)
	}
	defer rows.Close()

	var records []XPEventRecord
	for rows.Next() {
		var (
			rec XPEventRecord
			ts  int64
		)
		if err := rows.Scan(&rec.LearnerID, &rec.Amount, &rec.Source, &rec.TotalAfter, &rec.Day, &rec.Sequence, &ts); err != nil {
			return nil, fmt.Errorf("scan xp event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *xpEventRepo) XPByDay(ctx context.Context, learnerID, sinceDay string) ([]DayTotal, error) {
	q, args := builder().Select("day", entsql.As(entsql.Sum("amount"), "xp")).
		From(entsql.Table("xp_events")).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.GTE("day", sinceDay),
		)).
		GroupBy("day").
		OrderBy("day").
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query xp by day: %w", err)
	}
	defer rows.Close()

	var totals []DayTotal
	for rows.Next() {
		var d DayTotal
		if err := rows.Scan(&d.Day, &d.XP); err != nil {
			return nil, fmt.Errorf("scan xp by day: %w", err)
		}
		totals = append(totals, d)
	}
	return totals, rows.Err()
}

// applyOpts adds the QueryOpts filters to a selector over an event table
// with sequence and created_at columns.
func applyOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("created_at", opts.To.UnixMilli()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
