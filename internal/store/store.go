package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Store is the SQLite storage collaborator. All writes pass through a single
// process-level writer lock and one transaction each, which keeps learner
// read-modify-write cycles free of lost updates.
type Store struct {
	db  *sql.DB
	seq *sequenceCounter
	mu  sync.Mutex
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, seq: seq}, nil
}

// DSN builds the modernc.org/sqlite connection string for path.
func DSN(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Learners returns a LearnerRepo backed by this store.
func (s *Store) Learners() LearnerRepo { return &learnerRepo{s: s} }

// XPEvents returns an XPEventRepo backed by this store.
func (s *Store) XPEvents() XPEventRepo { return &xpEventRepo{s: s} }

// Lessons returns a LessonRepo backed by this store.
func (s *Store) Lessons() LessonRepo { return &lessonRepo{s: s} }

// Sessions returns a SessionRepo backed by this store.
func (s *Store) Sessions() SessionRepo { return &sessionRepo{s: s} }

// Achievements returns an AchievementRepo backed by this store.
func (s *Store) Achievements() AchievementRepo { return &achievementRepo{s: s} }

// Activities returns the ActivityRepo backed by this store.
func (s *Store) Activities() ActivityRepo { return &activityRepo{s: s} }

// Vocabulary returns the VocabularyRepo backed by this store.
func (s *Store) Vocabulary() VocabularyRepo { return &vocabularyRepo{s: s} }

// Events returns the LLM EventRepo backed by this store.
func (s *Store) Events() EventRepo { return &eventRepo{s: s} }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn inside a write transaction while holding the writer lock.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// builder returns a fresh SQLite statement builder.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. FLUENTPATH_DB environment variable
// 2. $XDG_DATA_HOME/fluentpath/fluentpath.db
// 3. ~/.local/share/fluentpath/fluentpath.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("FLUENTPATH_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "fluentpath", "fluentpath.db")
	return p, ensureDir(p)
}

// EnsureDir creates the parent directory of a database path.
func EnsureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	return ensureDir(path)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
