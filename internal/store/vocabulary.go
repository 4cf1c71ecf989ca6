package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var vocabColumns = []string{
	"learner_id", "word", "meaning", "example", "learned_at", "review_count",
	"stage", "consecutive_hits", "graduated", "next_review", "last_review",
}

// vocabularyRepo implements VocabularyRepo.
type vocabularyRepo struct {
	s *Store
}

func (r *vocabularyRepo) SaveWords(ctx context.Context, learnerID string, words []VocabRecord) error {
	if len(words) == 0 {
		return nil
	}
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureLearner(ctx, tx, learnerID, time.Now().UTC()); err != nil {
			return err
		}
		ins := builder().Insert("vocabulary").Columns(vocabColumns...)
		for _, w := range words {
			ins.Values(vocabValues(learnerID, w)...)
		}
		q, args := ins.OnConflict(
			entsql.ConflictColumns("learner_id", "word"),
			// Learning a word again starts its schedule over.
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range vocabColumns[2:] {
					u.SetExcluded(c)
				}
			}),
		).Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("save words: %w", err)
		}
		return nil
	})
}

func (r *vocabularyRepo) UpdateWord(ctx context.Context, learnerID, word string, fn func(rec *VocabRecord) error) (*VocabRecord, error) {
	var out *VocabRecord
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		where := entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("word", word))
		q, args := builder().Select(vocabColumns...).
			From(entsql.Table("vocabulary")).
			Where(where).
			Query()
		rec, err := scanVocab(tx.QueryRowContext(ctx, q, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("word %q: %w", word, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get word: %w", err)
		}

		if err := fn(rec); err != nil {
			return err
		}
		rec.LearnerID, rec.Word = learnerID, word

		q, args = builder().Update("vocabulary").
			Set("meaning", rec.Meaning).
			Set("example", rec.Example).
			Set("review_count", rec.ReviewCount).
			Set("stage", rec.Stage).
			Set("consecutive_hits", rec.ConsecutiveHits).
			Set("graduated", rec.Graduated).
			Set("next_review", rec.NextReview.UnixMilli()).
			Set("last_review", millisOrZero(rec.LastReview)).
			Where(where).
			Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("update word: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vocabularyRepo) Words(ctx context.Context, learnerID string) ([]VocabRecord, error) {
	q, args := builder().Select(vocabColumns...).
		From(entsql.Table("vocabulary")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("word").
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()

	var out []VocabRecord
	for rows.Next() {
		rec, err := scanVocab(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVocab(row scanner) (*VocabRecord, error) {
	var (
		rec                    VocabRecord
		learned, next, lastRev int64
	)
	err := row.Scan(&rec.LearnerID, &rec.Word, &rec.Meaning, &rec.Example, &learned,
		&rec.ReviewCount, &rec.Stage, &rec.ConsecutiveHits, &rec.Graduated, &next, &lastRev)
	if err != nil {
		return nil, err
	}
	rec.LearnedAt = time.UnixMilli(learned).UTC()
	rec.NextReview = time.UnixMilli(next).UTC()
	if lastRev != 0 {
		rec.LastReview = time.UnixMilli(lastRev).UTC()
	}
	return &rec, nil
}

func vocabValues(learnerID string, w VocabRecord) []any {
	return []any{
		learnerID, w.Word, w.Meaning, w.Example, w.LearnedAt.UnixMilli(), w.ReviewCount,
		w.Stage, w.ConsecutiveHits, w.Graduated, w.NextReview.UnixMilli(), millisOrZero(w.LastReview),
	}
}

func millisOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
