// Package store constructs session stores from configuration.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ladeflyt/grunnlag/internal/session"
	"github.com/ladeflyt/grunnlag/internal/session/memory"
	"github.com/ladeflyt/grunnlag/internal/session/sqlite"
)

// ErrMissingStoreConfig indicates New was called without a store configuration.
var ErrMissingStoreConfig = errors.New("no store configuration specified in options")

// ErrMultipleStores indicates the Options contains more than one store configuration.
var ErrMultipleStores = errors.New("only one store option can be specified")

// ErrNonPositiveTTL indicates the Options TTL is zero or negative.
var ErrNonPositiveTTL = errors.New("session ttl must be positive")

// Options contains all options for all store implementations. Only one store option can be
// specified at a time.
type Options struct {
	SQLite *SQLiteOptions
	Memory *MemoryOptions

	// TTL is the session lifetime applied by whichever store is configured. It must be
	// positive.
	TTL time.Duration
}

// SQLiteOptions is the configuration for a sqlite backed store.
type SQLiteOptions struct {
	// Path is the sqlite database file. It is created if absent.
	Path string
}

// MemoryOptions is the configuration for an in-memory store.
type MemoryOptions struct{}

// New creates a session store for the configuration specified by opts. Consumers may only
// supply 1 store configuration. If no store configuration is supplied, it returns
// ErrMissingStoreConfig.
func New(ctx context.Context, opts Options) (session.Store, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	switch {
	case opts.SQLite != nil:
		return sqlite.Open(ctx, opts.SQLite.Path, opts.TTL)

	case opts.Memory != nil:
		return memory.New(opts.TTL), nil

	default:
		return nil, ErrMissingStoreConfig
	}
}

func (o Options) validate() error {
	var count int

	if o.SQLite != nil {
		count++
	}

	if o.Memory != nil {
		count++
	}

	if count > 1 {
		return ErrMultipleStores
	}

	if o.TTL <= 0 {
		return ErrNonPositiveTTL
	}

	return nil
}
