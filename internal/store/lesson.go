package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// lessonRepo implements LessonRepo.
type lessonRepo struct {
	s *Store
}

func (r *lessonRepo) SaveResult(ctx context.Context, data LessonResultData) (bool, error) {
	var firstPass bool
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		firstPass, err = saveLessonResult(ctx, tx, data, time.Now().UTC())
		return err
	})
	if err != nil {
		return false, err
	}
	return firstPass, nil
}

// saveLessonResult upserts one attempt on an open transaction and reports
// whether it moved the lesson from not-passed to passed.
func saveLessonResult(ctx context.Context, tx *sql.Tx, data LessonResultData, now time.Time) (bool, error) {
	if err := ensureLearner(ctx, tx, data.LearnerID, now); err != nil {
		return false, err
	}

	where := entsql.And(
		entsql.EQ("learner_id", data.LearnerID),
		entsql.EQ("lesson_id", data.LessonID),
	)
	raw := fmt.Sprintf("%d/%d", data.Correct, data.Total)

	q, args := builder().Select("best_score", "attempts", "passed").
		From(entsql.Table("lesson_results")).
		Where(where).
		Query()

	var (
		best, attempts int
		passed         bool
		firstPass      bool
	)
	err := tx.QueryRowContext(ctx, q, args...).Scan(&best, &attempts, &passed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		firstPass = data.Passed
		q, args = builder().Insert("lesson_results").
			Columns("learner_id", "lesson_id", "best_score", "last_score", "raw_score", "attempts", "passed", "completed_at").
			Values(data.LearnerID, data.LessonID, data.Percentage, data.Percentage, raw, 1, data.Passed, now.UnixMilli()).
			Query()
	case err != nil:
		return false, fmt.Errorf("query lesson result: %w", err)
	default:
		firstPass = data.Passed && !passed
		q, args = builder().Update("lesson_results").
			Set("best_score", max(best, data.Percentage)).
			Set("last_score", data.Percentage).
			Set("raw_score", raw).
			Set("attempts", attempts+1).
			Set("passed", passed || data.Passed).
			Set("completed_at", now.UnixMilli()).
			Where(where).
			Query()
	}

	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return false, fmt.Errorf("save lesson result: %w", err)
	}
	return firstPass, nil
}

func (r *lessonRepo) LessonResults(ctx context.Context, learnerID string) ([]LessonResultRecord, error) {
	q, args := builder().Select("learner_id", "lesson_id", "best_score", "last_score", "raw_score", "attempts", "passed", "completed_at").
		From(entsql.Table("lesson_results")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("lesson_id").
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query lesson results: %w", err)
	}
	defer rows.Close()

	var records []LessonResultRecord
	for rows.Next() {
		var (
			rec LessonResultRecord
			ts  int64
		)
		if err := rows.Scan(&rec.LearnerID, &rec.LessonID, &rec.BestScore, &rec.LastScore,
			&rec.RawScore, &rec.Attempts, &rec.Passed, &ts); err != nil {
			return nil, fmt.Errorf("scan lesson result: %w", err)
		}
		rec.CompletedAt = time.UnixMilli(ts).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}
