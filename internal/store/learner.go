package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var learnerColumns = []string{
	"id", "xp", "streak", "streak_last_date", "lessons_completed",
	"chat_sessions", "created_at", "updated_at",
}

// learnerRepo implements LearnerRepo.
type learnerRepo struct {
	s *Store
}

func (r *learnerRepo) Get(ctx context.Context, id string) (*LearnerRecord, error) {
	return getLearner(ctx, r.s.db, id)
}

func (r *learnerRepo) Update(ctx context.Context, id string, fn func(rec *LearnerRecord) error) (*LearnerRecord, error) {
	var out *LearnerRecord
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		rec, err := updateLearner(ctx, tx, id, time.Now().UTC(), fn)
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learnerRepo) Delete(ctx context.Context, id string) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		// Child rows go first so the delete does not depend on the
		// foreign_keys pragma being honoured by the connection.
		for _, table := range []string{"xp_events", "lesson_results", "sessions", "achievements", "vocabulary"} {
			q, args := builder().Delete(table).Where(entsql.EQ("learner_id", id)).Query()
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		q, args := builder().Delete("learners").Where(entsql.EQ("id", id)).Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("delete learner: %w", err)
		}
		return nil
	})
}

// updateLearner is the body of Update on an open transaction.
func updateLearner(ctx context.Context, tx *sql.Tx, id string, now time.Time, fn func(rec *LearnerRecord) error) (*LearnerRecord, error) {
	if err := ensureLearner(ctx, tx, id, now); err != nil {
		return nil, err
	}

	rec, err := getLearner(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.ID = id
	rec.UpdatedAt = now

	q, args := builder().Update("learners").
		Set("xp", rec.XP).
		Set("streak", rec.Streak).
		Set("streak_last_date", rec.StreakLastDate).
		Set("lessons_completed", rec.LessonsCompleted).
		Set("chat_sessions", rec.ChatSessions).
		Set("updated_at", now.UnixMilli()).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("update learner: %w", err)
	}
	return rec, nil
}

// getLearner loads one learner through db, which may be a transaction.
func getLearner(ctx context.Context, db queryRower, id string) (*LearnerRecord, error) {
	q, args := builder().Select(learnerColumns...).
		From(entsql.Table("learners")).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		rec              LearnerRecord
		created, updated int64
	)
	err := db.QueryRowContext(ctx, q, args...).Scan(
		&rec.ID, &rec.XP, &rec.Streak, &rec.StreakLastDate,
		&rec.LessonsCompleted, &rec.ChatSessions, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("learner %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query learner: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	return &rec, nil
}

// ensureLearner inserts a zero-progress learner row if none exists.
func ensureLearner(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	q, args := builder().Insert("learners").
		Columns("id", "created_at", "updated_at").
		Values(id, now.UnixMilli(), now.UnixMilli()).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	return nil
}
