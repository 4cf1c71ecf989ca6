package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/fluentpath/internal/store"
)

// VocabularyRepository implements store.VocabularyRepo.
type VocabularyRepository struct {
	db DBTX
	tx *Transactor
}

func NewVocabularyRepository(db DBTX, tx *Transactor) *VocabularyRepository {
	return &VocabularyRepository{db: db, tx: tx}
}

const selectVocab = `
	SELECT learner_id, word, meaning, example, learned_at, review_count,
		stage, consecutive_hits, graduated, next_review, last_review
	FROM vocabulary
`

func (r *VocabularyRepository) SaveWords(ctx context.Context, learnerID string, words []store.VocabRecord) error {
	if len(words) == 0 {
		return nil
	}
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureLearner(ctx, tx, learnerID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, w := range words {
			batch.Queue(`
				INSERT INTO vocabulary (learner_id, word, meaning, example, learned_at, review_count,
					stage, consecutive_hits, graduated, next_review, last_review)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				ON CONFLICT (learner_id, word) DO UPDATE
				SET meaning = EXCLUDED.meaning, example = EXCLUDED.example,
					learned_at = EXCLUDED.learned_at, review_count = EXCLUDED.review_count,
					stage = EXCLUDED.stage, consecutive_hits = EXCLUDED.consecutive_hits,
					graduated = EXCLUDED.graduated, next_review = EXCLUDED.next_review,
					last_review = EXCLUDED.last_review
			`, learnerID, w.Word, w.Meaning, w.Example, w.LearnedAt, w.ReviewCount,
				w.Stage, w.ConsecutiveHits, w.Graduated, w.NextReview, nullTime(w.LastReview))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save words: %w", err)
		}
		return nil
	})
}

func (r *VocabularyRepository) UpdateWord(ctx context.Context, learnerID, word string, fn func(rec *store.VocabRecord) error) (*store.VocabRecord, error) {
	var out *store.VocabRecord
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rec, err := scanVocab(tx.QueryRow(ctx, selectVocab+" WHERE learner_id = $1 AND word = $2 FOR UPDATE", learnerID, word))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("word %q: %w", word, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get word: %w", err)
		}

		if err := fn(rec); err != nil {
			return err
		}
		rec.LearnerID, rec.Word = learnerID, word

		_, err = tx.Exec(ctx, `
			UPDATE vocabulary SET
				meaning = $3,
				example = $4,
				review_count = $5,
				stage = $6,
				consecutive_hits = $7,
				graduated = $8,
				next_review = $9,
				last_review = $10
			WHERE learner_id = $1 AND word = $2
		`, learnerID, word, rec.Meaning, rec.Example, rec.ReviewCount, rec.Stage,
			rec.ConsecutiveHits, rec.Graduated, rec.NextReview, nullTime(rec.LastReview))
		if err != nil {
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

func (r *VocabularyRepository) Words(ctx context.Context, learnerID string) ([]store.VocabRecord, error) {
	rows, err := r.db.Query(ctx, selectVocab+" WHERE learner_id = $1 ORDER BY word", learnerID)
	if err != nil {
		return nil, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()

	var out []store.VocabRecord
	for rows.Next() {
		rec, err := scanVocab(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanVocab(row pgx.Row) (*store.VocabRecord, error) {
	var (
		rec     store.VocabRecord
		lastRev *time.Time
	)
	err := row.Scan(&rec.LearnerID, &rec.Word, &rec.Meaning, &rec.Example, &rec.LearnedAt,
		&rec.ReviewCount, &rec.Stage, &rec.ConsecutiveHits, &rec.Graduated, &rec.NextReview, &lastRev)
	if err != nil {
		return nil, err
	}
	if lastRev != nil {
		rec.LastReview = *lastRev
	}
	return &rec, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
