package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/fluentpath/internal/store"
)

// LearnerRepository implements store.LearnerRepo. Update locks the learner
// row with SELECT ... FOR UPDATE so concurrent awards serialize per learner.
type LearnerRepository struct {
	db DBTX
	tx *Transactor
}

func NewLearnerRepository(db DBTX, tx *Transactor) *LearnerRepository {
	return &LearnerRepository{db: db, tx: tx}
}

const selectLearner = `
	SELECT id, xp, streak, streak_last_date, lessons_completed, chat_sessions, created_at, updated_at
	FROM learners
	WHERE id = $1
`

func (r *LearnerRepository) Get(ctx context.Context, id string) (*store.LearnerRecord, error) {
	return scanLearner(r.db.QueryRow(ctx, selectLearner, id), id)
}

func (r *LearnerRepository) Update(ctx context.Context, id string, fn func(rec *store.LearnerRecord) error) (*store.LearnerRecord, error) {
	var out *store.LearnerRecord
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rec, err := updateLearner(ctx, tx, id, fn)
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateLearner locks, mutates and writes back one learner row on tx.
func updateLearner(ctx context.Context, tx DBTX, id string, fn func(rec *store.LearnerRecord) error) (*store.LearnerRecord, error) {
	if err := ensureLearner(ctx, tx, id); err != nil {
		return nil, err
	}

	rec, err := scanLearner(tx.QueryRow(ctx, selectLearner+" FOR UPDATE", id), id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.ID = id

	err = tx.QueryRow(ctx, `
		UPDATE learners SET
			xp = $2,
			streak = $3,
			streak_last_date = $4,
			lessons_completed = $5,
			chat_sessions = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, rec.XP, rec.Streak, rec.StreakLastDate, rec.LessonsCompleted, rec.ChatSessions).Scan(&rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update learner: %w", err)
	}
	return rec, nil
}

func (r *LearnerRepository) Delete(ctx context.Context, id string) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, q := range []string{
			`DELETE FROM xp_events WHERE learner_id = $1`,
			`DELETE FROM lesson_results WHERE learner_id = $1`,
			`DELETE FROM sessions WHERE learner_id = $1`,
			`DELETE FROM achievements WHERE learner_id = $1`,
			`DELETE FROM vocabulary WHERE learner_id = $1`,
			`DELETE FROM learners WHERE id = $1`,
		} {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return fmt.Errorf("delete learner: %w", err)
			}
		}
		return nil
	})
}

func scanLearner(row pgx.Row, id string) (*store.LearnerRecord, error) {
	var rec store.LearnerRecord
	err := row.Scan(
		&rec.ID,
		&rec.XP,
		&rec.Streak,
		&rec.StreakLastDate,
		&rec.LessonsCompleted,
		&rec.ChatSessions,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("learner %q: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return &rec, nil
}

func ensureLearner(ctx context.Context, db DBTX, id string) error {
	if _, err := db.Exec(ctx, `INSERT INTO learners (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	return nil
}
