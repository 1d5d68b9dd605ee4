package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
)

// MustOpenStore opens a metadata.Store in a temp dir and registers cleanup.
func MustOpenStore(t testing.TB) *metadata.Store {
	t.Helper()

	store, err := metadata.Open(filepath.Join(t.TempDir(), "gameshelf.db"))
	if err != nil {
		t.Fatalf("metadata.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewOwner creates an owner for tests.
func NewOwner(t testing.TB, store *metadata.Store, name, plan string) *catalog.Owner {
	t.Helper()

	o, err := store.CreateOwner(context.Background(), name, plan)
	if err != nil {
		t.Fatalf("store.CreateOwner: %v", err)
	}
	return o
}

// NewRecord inserts a record for tests.
func NewRecord(t testing.TB, store *metadata.Store, r catalog.Record) *catalog.Record {
	t.Helper()

	if err := store.CreateRecord(context.Background(), &r); err != nil {
		t.Fatalf("store.CreateRecord: %v", err)
	}
	return &r
}
