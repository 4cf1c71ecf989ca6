package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/fluentpath/internal/store"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) LogSession(ctx context.Context, data store.SessionData) (*store.SessionRecord, error) {
	if err := ensureLearner(ctx, r.db, data.LearnerID); err != nil {
		return nil, err
	}

	rec := &store.SessionRecord{SessionData: data, ID: uuid.NewString()}
	err := r.db.QueryRow(ctx, `
		INSERT INTO sessions (id, learner_id, kind, duration_mins, day)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rec.ID, data.LearnerID, data.Kind, data.DurationMins, data.Day).Scan(&rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("log session: %w", err)
	}
	return rec, nil
}

func (r *SessionRepository) RecentSessions(ctx context.Context, learnerID, sinceDay string) ([]store.SessionRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, learner_id, kind, duration_mins, day, created_at
		FROM sessions
		WHERE learner_id = $1 AND day >= $2
		ORDER BY day DESC, created_at DESC
	`, learnerID, sinceDay)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []store.SessionRecord
	for rows.Next() {
		var s store.SessionRecord
		if err := rows.Scan(&s.ID, &s.LearnerID, &s.Kind, &s.DurationMins, &s.Day, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) DailyActivity(ctx context.Context, learnerID, day string) (store.DailyActivity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT kind, SUM(duration_mins)::int
		FROM sessions
		WHERE learner_id = $1 AND day = $2
		GROUP BY kind
	`, learnerID, day)
	if err != nil {
		return store.DailyActivity{}, fmt.Errorf("query daily activity: %w", err)
	}
	defer rows.Close()

	var kinds []string
	total := 0
	for rows.Next() {
		var (
			kind string
			mins int
		)
		if err := rows.Scan(&kind, &mins); err != nil {
			return store.DailyActivity{}, fmt.Errorf("scan daily activity: %w", err)
		}
		kinds = append(kinds, kind)
		total += mins
	}
	if err := rows.Err(); err != nil {
		return store.DailyActivity{}, err
	}
	return store.BuildDailyActivity(day, kinds, total), nil
}
