package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// sessionRepo implements SessionRepo.
type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) LogSession(ctx context.Context, data SessionData) (*SessionRecord, error) {
	rec := &SessionRecord{
		SessionData: data,
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
	}

	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		return insertSession(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func insertSession(ctx context.Context, tx *sql.Tx, rec *SessionRecord) error {
	if err := ensureLearner(ctx, tx, rec.LearnerID, rec.Timestamp); err != nil {
		return err
	}
	q, args := builder().Insert("sessions").
		Columns("id", "learner_id", "kind", "duration_mins", "day", "created_at").
		Values(rec.ID, rec.LearnerID, rec.Kind, rec.DurationMins, rec.Day, rec.Timestamp.UnixMilli()).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) RecentSessions(ctx context.Context, learnerID, sinceDay string) ([]SessionRecord, error) {
	q, args := builder().Select("id", "learner_id", "kind", "duration_mins", "day", "created_at").
		From(entsql.Table("sessions")).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.GTE("day", sinceDay),
		)).
		OrderBy(entsql.Desc("day"), entsql.Desc("created_at")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var (
			rec SessionRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.LearnerID, &rec.Kind, &rec.DurationMins, &rec.Day, &ts); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *sessionRepo) DailyActivity(ctx context.Context, learnerID, day string) (DailyActivity, error) {
	q, args := builder().Select("kind", entsql.As(entsql.Sum("duration_mins"), "minutes")).
		From(entsql.Table("sessions")).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("day", day),
		)).
		GroupBy("kind").
		Query()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return DailyActivity{}, fmt.Errorf("query daily activity: %w", err)
	}
	defer rows.Close()

	var kinds []string
	minutes := 0
	for rows.Next() {
		var (
			kind string
			mins int
		)
		if err := rows.Scan(&kind, &mins); err != nil {
			return DailyActivity{}, fmt.Errorf("scan daily activity: %w", err)
		}
		kinds = append(kinds, kind)
		minutes += mins
	}
	if err := rows.Err(); err != nil {
		return DailyActivity{}, err
	}
	return BuildDailyActivity(day, kinds, minutes), nil
}

// BuildDailyActivity folds the distinct session kinds of one day into the
// daily-goal view.
func BuildDailyActivity(day string, kinds []string, minutes int) DailyActivity {
	a := DailyActivity{Day: day, Minutes: minutes}
	seen := map[string]bool{}
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		switch k {
		case SessionLesson:
			a.Lesson = true
		case SessionPronunciation:
			a.Practice = true
		case SessionQuiz:
			a.Quiz = true
		case SessionChat:
			a.Chat = true
		case SessionWriting:
			a.Writing = true
		}
	}
	a.Count = len(seen)
	return a
}
