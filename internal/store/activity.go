package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// activityRepo implements ActivityRepo on one write transaction.
type activityRepo struct {
	s *Store
}

func (r *activityRepo) Record(ctx context.Context, act ActivityData, fn func(rec *LearnerRecord, firstPass bool) (ActivityChange, error)) (*LearnerRecord, error) {
	now := time.Now().UTC()
	at := act.At
	if at.IsZero() {
		at = now
	}

	var out *LearnerRecord
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		firstPass := false
		if act.Lesson != nil {
			var err error
			if firstPass, err = saveLessonResult(ctx, tx, *act.Lesson, now); err != nil {
				return err
			}
		}

		var change ActivityChange
		rec, err := updateLearner(ctx, tx, act.LearnerID, now, func(rec *LearnerRecord) error {
			var err error
			change, err = fn(rec, firstPass)
			return err
		})
		if err != nil {
			return err
		}

		if err := appendXP(ctx, tx, r.s.seq, XPEventData{
			LearnerID:  act.LearnerID,
			Amount:     change.Awarded,
			Source:     act.Source,
			TotalAfter: rec.XP,
			Day:        act.Day,
		}, now); err != nil {
			return err
		}
		if err := recordUnlocks(ctx, tx, act.LearnerID, change.Unlocked, at); err != nil {
			return err
		}
		if act.Session != nil {
			if err := insertSession(ctx, tx, &SessionRecord{
				SessionData: *act.Session,
				ID:          uuid.NewString(),
				Timestamp:   now,
			}); err != nil {
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
