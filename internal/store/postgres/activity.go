package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/fluentpath/internal/store"
)

// ActivityRepository implements store.ActivityRepo. The lesson row and the
// learner row are both taken FOR UPDATE, lesson first, inside one
// transaction.
type ActivityRepository struct {
	tx *Transactor
}

func NewActivityRepository(tx *Transactor) *ActivityRepository {
	return &ActivityRepository{tx: tx}
}

func (r *ActivityRepository) Record(ctx context.Context, act store.ActivityData, fn func(rec *store.LearnerRecord, firstPass bool) (store.ActivityChange, error)) (*store.LearnerRecord, error) {
	at := act.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var out *store.LearnerRecord
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		firstPass := false
		if act.Lesson != nil {
			var err error
			if firstPass, err = saveLessonResult(ctx, tx, *act.Lesson); err != nil {
				return err
			}
		}

		var change store.ActivityChange
		rec, err := updateLearner(ctx, tx, act.LearnerID, func(rec *store.LearnerRecord) error {
			var err error
			change, err = fn(rec, firstPass)
			return err
		})
		if err != nil {
			return err
		}

		if err := NewXPEventRepository(tx).AppendXP(ctx, store.XPEventData{
			LearnerID:  act.LearnerID,
			Amount:     change.Awarded,
			Source:     act.Source,
			TotalAfter: rec.XP,
			Day:        act.Day,
		}); err != nil {
			return err
		}
		if err := NewAchievementRepository(tx).RecordUnlocks(ctx, act.LearnerID, change.Unlocked, at); err != nil {
			return err
		}
		if act.Session != nil {
			if _, err := NewSessionRepository(tx).LogSession(ctx, *act.Session); err != nil {
				return err
			}
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
