package testsupport

import (
	"context"
	"testing"

	"murmur/internal/candidate"
	"murmur/internal/config"
	"murmur/internal/linkstore"
)

// MustOpenStore opens a linkstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *linkstore.Store {
	t.Helper()

	store, err := linkstore.Open(cfg)
	if err != nil {
		t.Fatalf("linkstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedLinks imports entries into store.
func SeedLinks(t testing.TB, store *linkstore.Store, entries map[string]candidate.Stats) {
	t.Helper()

	if _, err := store.Import(context.Background(), entries); err != nil {
		t.Fatalf("store.Import: %v", err)
	}
}
