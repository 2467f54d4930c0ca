package testsupport

import (
	"context"
	"testing"

	"seasontrack/internal/config"
	"seasontrack/internal/kv"
	"seasontrack/internal/watchlist"
)

// MustOpenBackend opens the configured kv backend and registers cleanup.
func MustOpenBackend(t testing.TB, cfg *config.Config) kv.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	backend, err := kv.Open(cfg, nil)
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	return backend
}

// MustOpenStore opens a watchlist.Store over the configured backend.
func MustOpenStore(t testing.TB, cfg *config.Config) *watchlist.Store {
	t.Helper()

	policy, err := watchlist.ParseCorruptPolicy(cfg.Storage.CorruptPolicy)
	if err != nil {
		t.Fatalf("ParseCorruptPolicy: %v", err)
	}
	return watchlist.New(MustOpenBackend(t, cfg),
		watchlist.WithKey(cfg.Storage.Key),
		watchlist.WithCorruptPolicy(policy),
	)
}

// AddRecord adds a record and fails the test on error.
func AddRecord(t testing.TB, store *watchlist.Store, name, seasons string) watchlist.SeasonRecord {
	t.Helper()

	rec, err := store.Add(context.Background(), name, seasons)
	if err != nil {
		t.Fatalf("store.Add(%q, %q): %v", name, seasons, err)
	}
	return rec
}
