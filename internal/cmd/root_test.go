package cmd

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ladeflyt/grunnlag/internal/session/store"
)

func TestFlagDefaults(t *testing.T) {
	rootCmd, err := NewRootCommand()
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		Flag   string
		Expect string
	}{
		{Flag: "http-port", Expect: "8000"},
		{Flag: "zaptec-api-url", Expect: "https://api.zaptec.com"},
		{Flag: "store", Expect: "sqlite"},
		{Flag: "sqlite-path", Expect: "grunnlag.db"},
		{Flag: "session-ttl", Expect: "720h0m0s"},
		{Flag: "cache-dir", Expect: ""},
		{Flag: "trusted-proxies", Expect: ""},
	}

	for _, tc := range cases {
		t.Run(tc.Flag, func(t *testing.T) {
			flag := rootCmd.Flags().Lookup(tc.Flag)
			if flag == nil {
				t.Fatalf("flag %v not registered", tc.Flag)
			}

			if flag.DefValue != tc.Expect {
				t.Fatalf("expected default %q, got %q", tc.Expect, flag.DefValue)
			}
		})
	}
}

func TestToStoreOptions(t *testing.T) {
	opts := toStoreOptions(RootCommandOptions{
		Store:      "sqlite",
		SQLitePath: "sessions.db",
		SessionTTL: time.Hour,
	})

	if opts.SQLite == nil || opts.SQLite.Path != "sessions.db" {
		t.Fatalf("expected sqlite options, got %#v", opts)
	}
	if opts.Memory != nil {
		t.Fatal("unexpected memory options")
	}
	if opts.TTL != time.Hour {
		t.Fatalf("unexpected ttl: %v", opts.TTL)
	}

	opts = toStoreOptions(RootCommandOptions{Store: "memory", SessionTTL: time.Hour})
	if opts.Memory == nil || opts.SQLite != nil {
		t.Fatalf("expected memory options, got %#v", opts)
	}

	opts = toStoreOptions(RootCommandOptions{Store: "bogus"})
	if opts.Memory != nil || opts.SQLite != nil {
		t.Fatalf("expected no store options, got %#v", opts)
	}
}

// The default sqlite path is relative, so the store must open in whatever the process working
// directory is. The container image sets that to a directory writable by its runtime user.
func TestDefaultStoreOpensInWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	s, err := store.New(context.Background(), toStoreOptions(RootCommandOptions{
		Store:      "sqlite",
		SQLitePath: "grunnlag.db",
		SessionTTL: time.Hour,
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !s.IsHealthy(context.Background()) {
		t.Fatal("expected healthy store")
	}
}
