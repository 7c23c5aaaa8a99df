package testsupport

import (
	"testing"

	"payloadseed/internal/config"
	"payloadseed/internal/contentstore/sqlitestore"
)

// MustOpenStore opens the sqlite content store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlitestore.Store {
	t.Helper()

	store, err := sqlitestore.OpenFromConfig(cfg)
	if err != nil {
		t.Fatalf("sqlitestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
