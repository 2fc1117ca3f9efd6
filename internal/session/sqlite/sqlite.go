// Package sqlite provides a sqlite backed session store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/ladeflyt/grunnlag/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	user TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Store is a session.Store backed by a sqlite database file.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens, and if necessary creates, the database at path. The schema is applied on open.
// Sessions older than ttl are treated as expired.
func Open(ctx context.Context, path string, ttl time.Duration) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path cannot be empty")
	}

	if ttl <= 0 {
		return nil, errors.New("sqlite: ttl must be positive")
	}

	// WAL keeps readers unblocked during writes; the busy timeout covers sweeper/handler
	// write contention.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, ttl: ttl}, nil
}

// Create satisfies session.Store.
func (s *Store) Create(ctx context.Context, sess session.Session) error {
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO sessions (id, access_token, user, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.AccessToken, sess.User, createdAt.UTC(),
	)
	return err
}

// Get satisfies session.Store.
func (s *Store) Get(ctx context.Context, id string) (session.Session, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, access_token, user, created_at FROM sessions WHERE id = ? AND created_at > ?`,
		id, s.cutoff(),
	)

	var sess session.Session
	if err := row.Scan(&sess.ID, &sess.AccessToken, &sess.User, &sess.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	return sess, nil
}

// Delete satisfies session.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpired satisfies session.Store.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at <= ?`, s.cutoff())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IsHealthy satisfies session.Store.
func (s *Store) IsHealthy(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Close satisfies session.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) cutoff() time.Time {
	return time.Now().Add(-s.ttl).UTC()
}
