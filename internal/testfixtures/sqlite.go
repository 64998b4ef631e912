package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/village-api/internal/persistence/sqlite"
)

// NewSQLiteStorage opens a migrated SQLite storage backed by a temporary
// file for integration-style persistence tests. Cleanup is registered with
// the provided testing.TB.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "village.db")

	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	tb.Cleanup(func() {
		_ = storage.Close()
	})
	return storage
}
