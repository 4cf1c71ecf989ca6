package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/fluentpath/internal/store"
)

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS global_sequence`,
	`CREATE TABLE IF NOT EXISTS learners (
		id TEXT PRIMARY KEY,
		xp INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0,
		streak_last_date TEXT NOT NULL DEFAULT '',
		lessons_completed INTEGER NOT NULL DEFAULT 0,
		chat_sessions INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS xp_events (
		sequence BIGINT PRIMARY KEY DEFAULT nextval('global_sequence'),
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		amount INTEGER NOT NULL,
		source TEXT NOT NULL,
		total_after INTEGER NOT NULL,
		day TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS xp_events_learner_day ON xp_events (learner_id, day)`,
	`CREATE TABLE IF NOT EXISTS lesson_results (
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		lesson_id TEXT NOT NULL,
		best_score INTEGER NOT NULL,
		last_score INTEGER NOT NULL,
		raw_score TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		passed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (learner_id, lesson_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		duration_mins INTEGER NOT NULL,
		day TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_learner_day ON sessions (learner_id, day)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		achievement_id TEXT NOT NULL,
		unlocked_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (learner_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS vocabulary (
		learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		word TEXT NOT NULL,
		meaning TEXT NOT NULL DEFAULT '',
		example TEXT NOT NULL DEFAULT '',
		learned_at TIMESTAMPTZ NOT NULL,
		review_count INTEGER NOT NULL DEFAULT 0,
		stage INTEGER NOT NULL DEFAULT 0,
		consecutive_hits INTEGER NOT NULL DEFAULT 0,
		graduated BOOLEAN NOT NULL DEFAULT FALSE,
		next_review TIMESTAMPTZ NOT NULL,
		last_review TIMESTAMPTZ,
		PRIMARY KEY (learner_id, word)
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		sequence BIGINT PRIMARY KEY DEFAULT nextval('global_sequence'),
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms BIGINT NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Store bundles the pool and the repositories built on it.
type Store struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

// Open connects to dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	pool, err := NewPool(ctx, dsn, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{pool: pool, tx: NewTransactor(pool)}, nil
}

// Pool exposes the underlying pool.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Learners() store.LearnerRepo { return NewLearnerRepository(s.pool, s.tx) }

func (s *Store) XPEvents() store.XPEventRepo { return NewXPEventRepository(s.pool) }

func (s *Store) Lessons() store.LessonRepo { return NewLessonRepository(s.tx) }

func (s *Store) Sessions() store.SessionRepo { return NewSessionRepository(s.pool) }

func (s *Store) Achievements() store.AchievementRepo { return NewAchievementRepository(s.pool) }

func (s *Store) Activities() store.ActivityRepo { return NewActivityRepository(s.tx) }

func (s *Store) Vocabulary() store.VocabularyRepo { return NewVocabularyRepository(s.pool, s.tx) }

func (s *Store) Events() store.EventRepo { return NewEventRepository(s.pool) }
