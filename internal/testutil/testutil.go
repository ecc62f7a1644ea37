// Package testutil provides shared test helpers for setting up databases
// and payload stores.
package testutil

import (
	"os"
	"testing"

	"github.com/marcus-grant/depo/internal/repo"
	"github.com/marcus-grant/depo/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *repo.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "depo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := repo.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary payload directory with an FS backend.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
