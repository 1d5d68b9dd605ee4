package metadata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

func TestRecordsByOwner_SubSecondOrder(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "gameshelf.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)
	stamps := []time.Duration{100 * time.Millisecond, 120 * time.Millisecond, 500 * time.Millisecond}
	ctx := context.Background()
	var want []string
	for i, d := range stamps {
		at := base.Add(d)
		store.now = func() time.Time { return at }
		r := &catalog.Record{OwnerID: "o1", Title: string(rune('A' + i)), Platform: "SNES"}
		if err := store.CreateRecord(ctx, r); err != nil {
			t.Fatalf("CreateRecord: %v", err)
		}
		want = append(want, r.Title)
	}

	got, err := store.RecordsByOwner(ctx, "o1")
	if err != nil {
		t.Fatalf("RecordsByOwner: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("record %d = %q, want %q", i, got[i].Title, want[i])
		}
	}
}
