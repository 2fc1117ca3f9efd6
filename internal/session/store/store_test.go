package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/ladeflyt/grunnlag/internal/session/store"
)

func TestNew(t *testing.T) {
	cases := []struct {
		Name string
		Opts Options
		Err  error
	}{
		{
			Name: "NoStore",
			Opts: Options{TTL: time.Hour},
			Err:  ErrMissingStoreConfig,
		},
		{
			Name: "MultipleStores",
			Opts: Options{
				SQLite: &SQLiteOptions{Path: "ignored"},
				Memory: &MemoryOptions{},
				TTL:    time.Hour,
			},
			Err: ErrMultipleStores,
		},
		{
			Name: "Memory",
			Opts: Options{Memory: &MemoryOptions{}, TTL: time.Hour},
		},
		{
			Name: "ZeroTTL",
			Opts: Options{Memory: &MemoryOptions{}},
			Err:  ErrNonPositiveTTL,
		},
		{
			Name: "NegativeTTL",
			Opts: Options{Memory: &MemoryOptions{}, TTL: -time.Minute},
			Err:  ErrNonPositiveTTL,
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			s, err := New(context.Background(), tc.Opts)

			if tc.Err != nil {
				if !errors.Is(err, tc.Err) {
					t.Fatalf("expected %v, got %v", tc.Err, err)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}
			s.Close()
		})
	}
}

func TestNewSQLite(t *testing.T) {
	s, err := New(context.Background(), Options{
		SQLite: &SQLiteOptions{Path: filepath.Join(t.TempDir(), "sessions.db")},
		TTL:    time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !s.IsHealthy(context.Background()) {
		t.Fatal("expected healthy store")
	}
}
