package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// achievementRepo implements AchievementRepo.
type achievementRepo struct {
	s *Store
}

func (r *achievementRepo) RecordUnlocks(ctx context.Context, learnerID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		return recordUnlocks(ctx, tx, learnerID, ids, at)
	})
}

func recordUnlocks(ctx context.Context, tx *sql.Tx, learnerID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ensureLearner(ctx, tx, learnerID, at.UTC()); err != nil {
		return err
	}
	ins := builder().Insert("achievements").
		Columns("learner_id", "achievement_id", "unlocked_at")
	for _, id := range ids {
		ins.Values(learnerID, id, at.UnixMilli())
	}
	q, args := ins.OnConflict(
		entsql.ConflictColumns("learner_id", "achievement_id"),
		entsql.DoNothing(),
	).Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("record unlocks: %w", err)
	}
	return nil
}

func (r *achievementRepo) Unlocked(ctx context.Context, learnerID string) ([]UnlockRecord, error) {
	q, args := builder().Select("achievement_id", "unlocked_at").
		From(entsql.Table("achievements")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("unlocked_at", "achievement_id").
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query unlocks: %w", err)
	}
	defer rows.Close()

	var out []UnlockRecord
	for rows.Next() {
		var (
			rec UnlockRecord
			ts  int64
		)
		if err := rows.Scan(&rec.AchievementID, &ts); err != nil {
			return nil, fmt.Errorf("scan unlock: %w", err)
		}
		rec.UnlockedAt = time.UnixMilli(ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
