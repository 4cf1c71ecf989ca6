package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/fluentpath/internal/store"
)

type LessonRepository struct {
	tx *Transactor
}

func NewLessonRepository(tx *Transactor) *LessonRepository {
	return &LessonRepository{tx: tx}
}

// SaveResult upserts the lesson row. The previous passed flag is read under
// a row lock so exactly one attempt observes the first pass.
func (r *LessonRepository) SaveResult(ctx context.Context, data store.LessonResultData) (bool, error) {
	var firstPass bool
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		firstPass, err = saveLessonResult(ctx, tx, data)
		return err
	})
	if err != nil {
		return false, err
	}
	return firstPass, nil
}

func saveLessonResult(ctx context.Context, tx DBTX, data store.LessonResultData) (bool, error) {
	if err := ensureLearner(ctx, tx, data.LearnerID); err != nil {
		return false, err
	}

	var wasPassed bool
	err := tx.QueryRow(ctx, `
		SELECT passed FROM lesson_results
		WHERE learner_id = $1 AND lesson_id = $2
		FOR UPDATE
	`, data.LearnerID, data.LessonID).Scan(&wasPassed)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("query lesson result: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lesson_results (
			learner_id, lesson_id, best_score, last_score, raw_score, attempts, passed, completed_at
		) VALUES ($1, $2, $3, $3, $4, 1, $5, now())
		ON CONFLICT (learner_id, lesson_id) DO UPDATE SET
			best_score = GREATEST(lesson_results.best_score, EXCLUDED.best_score),
			last_score = EXCLUDED.last_score,
			raw_score = EXCLUDED.raw_score,
			attempts = lesson_results.attempts + 1,
			passed = lesson_results.passed OR EXCLUDED.passed,
			completed_at = EXCLUDED.completed_at
	`, data.LearnerID, data.LessonID, data.Percentage, fmt.Sprintf("%d/%d", data.Correct, data.Total), data.Passed)
	if err != nil {
		return false, fmt.Errorf("upsert lesson result: %w", err)
	}
	return data.Passed && !wasPassed, nil
}

func (r *LessonRepository) LessonResults(ctx context.Context, learnerID string) ([]store.LessonResultRecord, error) {
	rows, err := r.tx.pool.Query(ctx, `
		SELECT learner_id, lesson_id, best_score, last_score, raw_score, attempts, passed, completed_at
		FROM lesson_results
		WHERE learner_id = $1
		ORDER BY lesson_id
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query lesson results: %w", err)
	}
	defer rows.Close()

	var out []store.LessonResultRecord
	for rows.Next() {
		var l store.LessonResultRecord
		if err := rows.Scan(&l.LearnerID, &l.LessonID, &l.BestScore, &l.LastScore,
			&l.RawScore, &l.Attempts, &l.Passed, &l.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan lesson result: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
