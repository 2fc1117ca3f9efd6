/*
Package session defines server side login sessions and the Store abstraction they live in. A
session holds the Zaptec access token obtained at login; browsers only ever see the opaque
session ID in a cookie.
*/
package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// ErrNotFound indicates a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is a single authenticated login.
type Session struct {
	// ID is an opaque identifier handed to the browser as a cookie value.
	ID string

	// AccessToken is the Zaptec API token obtained at login.
	AccessToken string

	// User is the username the session was created for.
	User string

	CreatedAt time.Time
}

// NewID generates a new session identifier.
func NewID() string {
	return uuid.New().String()
}

// Store persists sessions. Implementations enforce the configured session lifetime: Get never
// returns expired sessions.
type Store interface {
	// Create persists s. Creating a session with an existing ID replaces it.
	Create(ctx context.Context, s Session) error

	// Get retrieves the session identified by id. It returns ErrNotFound for unknown or
	// expired sessions.
	Get(ctx context.Context, id string) (Session, error)

	// Delete removes the session identified by id. Deleting an unknown session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all expired sessions and reports how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// IsHealthy returns true if the store is usable, else false.
	IsHealthy(ctx context.Context) bool

	Close() error
}

// Sweep periodically deletes expired sessions from store until ctx is cancelled. It blocks and
// is intended to run in its own goroutine.
func Sweep(ctx context.Context, logger logr.Logger, store Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Error(err, "Failed to delete expired sessions")
				continue
			}

			if removed > 0 {
				logger.Info("Deleted expired sessions", "count", removed)
			}
		}
	}
}
