package store

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS learners (
		id TEXT PRIMARY KEY,
		xp INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0,
		streak_last_date TEXT NOT NULL DEFAULT '',
		lessons_completed INTEGER NOT NULL DEFAULT 0,
		chat_sessions INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS xp_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		amount INTEGER NOT NULL,
		source TEXT NOT NULL,
		total_after INTEGER NOT NULL,
		day TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS xp_events_learner_day ON xp_events (learner_id, day)`,
	`CREATE TABLE IF NOT EXISTS lesson_results (
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		lesson_id TEXT NOT NULL,
		best_score INTEGER NOT NULL,
		last_score INTEGER NOT NULL,
		raw_score TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		passed INTEGER NOT NULL DEFAULT 0,
		completed_at INTEGER NOT NULL,
		PRIMARY KEY (learner_id, lesson_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		duration_mins INTEGER NOT NULL,
		day TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_learner_day ON sessions (learner_id, day)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		achievement_id TEXT NOT NULL,
		unlocked_at INTEGER NOT NULL,
		PRIMARY KEY (learner_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS vocabulary (
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		word TEXT NOT NULL,
		meaning TEXT NOT NULL DEFAULT '',
		example TEXT NOT NULL DEFAULT '',
		learned_at INTEGER NOT NULL,
		review_count INTEGER NOT NULL DEFAULT 0,
		stage INTEGER NOT NULL DEFAULT 0,
		consecutive_hits INTEGER NOT NULL DEFAULT 0,
		graduated INTEGER NOT NULL DEFAULT 0,
		next_review INTEGER NOT NULL,
		last_review INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (learner_id, word)
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
}

// migrate creates every table and index that does not exist yet.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
