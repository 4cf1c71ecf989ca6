package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/fluentpath/internal/store"
)

type AchievementRepository struct {
	db DBTX
}

func NewAchievementRepository(db DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func (r *AchievementRepository) RecordUnlocks(ctx context.Context, learnerID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ensureLearner(ctx, r.db, learnerID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO achievements (learner_id, achievement_id, unlocked_at)
		SELECT $1, unnest($2::text[]), $3
		ON CONFLICT (learner_id, achievement_id) DO NOTHING
	`, learnerID, ids, at)
	if err != nil {
		return fmt.Errorf("record unlocks: %w", err)
	}
	return nil
}

func (r *AchievementRepository) Unlocked(ctx context.Context, learnerID string) ([]store.UnlockRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT achievement_id, unlocked_at
		FROM achievements
		WHERE learner_id = $1
		ORDER BY unlocked_at, achievement_id
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query unlocks: %w", err)
	}
	defer rows.Close()

	var out []store.UnlockRecord
	for rows.Next() {
		var u store.UnlockRecord
		if err := rows.Scan(&u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan unlock: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
