package scan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/locator"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
	"github.com/blackwell-systems/gameshelf/internal/scan"
	"github.com/blackwell-systems/gameshelf/internal/testsupport"
)

type fixture struct {
	store *metadata.Store
	blobs *testsupport.MemBlobs
	codec *locator.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		store: testsupport.MustOpenStore(t),
		blobs: testsupport.NewMemBlobs(),
		codec: locator.New("gameshelf"),
	}
}

func (f *fixture) scanner(pageSize int, ignore ...string) *scan.Scanner {
	return scan.New(scan.Options{
		Blobs:    f.blobs,
		Meta:     f.store,
		Codec:    f.codec,
		PageSize: pageSize,
		Ignore:   ignore,
	})
}

func keys(t *testing.T, report *scan.FileReport) []string {
	t.Helper()
	var out []string
	for _, o := range report.Orphans {
		out = append(out, o.Key)
	}
	return out
}

// --- Files ---

func TestFiles_OrphanIsExactlyTheUnreferencedBlob(t *testing.T) {
	f := newFixture(t)
	a := f.blobs.Put("gameshelf/ana-1/covers/a-1")
	b := f.blobs.Put("gameshelf/ana-1/screenshots/b-2")
	f.blobs.Put("gameshelf/ana-1/covers/c-3")
	testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: "1", Title: "T", Platform: "P", Cover: a, Screenshots: []string{b}})

	for _, pageSize := range []int{1, 2, 500} {
		report, err := f.scanner(pageSize).Files(context.Background(), scan.FileOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"gameshelf/ana-1/covers/c-3"}, keys(t, report), "page size %d", pageSize)
		assert.Equal(t, 3, report.Scanned)
	}
}

func TestFiles_EmptyMetadataOrphansEverything(t *testing.T) {
	f := newFixture(t)
	f.blobs.Put("gameshelf/x-1/covers/a-1")
	f.blobs.Put("gameshelf/x-1/covers/b-1")

	report, err := f.scanner(1).Files(context.Background(), scan.FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, f.blobs.Keys(), keys(t, report))
}

func TestFiles_KeyComparisonIgnoresVersion(t *testing.T) {
	f := newFixture(t)
	f.blobs.Put("gameshelf/ana-1/covers/a-1")
	stored := locator.Build(testsupport.PublicBase, 99, "gameshelf/ana-1/covers/a-1", "jpg")
	testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: "1", Title: "T", Platform: "P", Cover: stored})

	byKey, err := f.scanner(0).Files(context.Background(), scan.FileOptions{Compare: scan.CompareKey})
	require.NoError(t, err)
	assert.Empty(t, byKey.Orphans)

	byLocator, err := f.scanner(0).Files(context.Background(), scan.FileOptions{Compare: scan.CompareLocator})
	require.NoError(t, err)
	assert.Len(t, byLocator.Orphans, 1, "raw string comparison reports the version change as an orphan")
}

func TestFiles_GlobalReportsMisplacedSeparately(t *testing.T) {
	f := newFixture(t)
	legacy := f.blobs.Put("legacy-cover")
	f.blobs.Put("tmp/stray")
	f.blobs.Put("gameshelf/ana-1/covers/orphan-1")
	testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: "1", Title: "T", Platform: "P", Cover: legacy})

	s := f.scanner(0)
	restricted, err := s.Files(context.Background(), scan.FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, restricted.Scanned)
	assert.Empty(t, restricted.Misplaced)

	global, err := s.Files(context.Background(), scan.FileOptions{Global: true})
	require.NoError(t, err)
	assert.Equal(t, 3, global.Scanned)
	assert.Equal(t, []string{"gameshelf/ana-1/covers/orphan-1"}, keys(t, global))
	require.Len(t, global.Misplaced, 1)
	assert.Equal(t, "tmp/stray", global.Misplaced[0].Key)

	res := s.ApplyFiles(context.Background(), global)
	assert.Equal(t, scan.Result{Category: scan.CategoryFiles, Attempted: 1, Deleted: 1}, res)
	assert.True(t, f.blobs.Has("tmp/stray"), "misplaced blobs are never deleted")
	assert.True(t, f.blobs.Has("legacy-cover"))
}

func TestFiles_IgnorePatterns(t *testing.T) {
	f := newFixture(t)
	f.blobs.Put("gameshelf/samples/covers/demo-1")
	f.blobs.Put("gameshelf/ana-1/covers/x-1")

	report, err := f.scanner(0, "gameshelf/samples/**").Files(context.Background(), scan.FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ignored)
	assert.Equal(t, []string{"gameshelf/ana-1/covers/x-1"}, keys(t, report))
}

func TestFiles_UnresolvableLocatorsAreCountedNotFatal(t *testing.T) {
	f := newFixture(t)
	testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: "1", Title: "T", Platform: "P", Cover: "%%garbage"})

	report, err := f.scanner(0).Files(context.Background(), scan.FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unresolvable)
}

func TestFiles_ListingFailureDeletesNothing(t *testing.T) {
	f := newFixture(t)
	f.blobs.Put("gameshelf/ana-1/covers/a-1")
	f.blobs.ListErr = errors.New("rate limited")

	_, err := f.scanner(0).Files(context.Background(), scan.FileOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Empty(t, f.blobs.Deleted)
}

func TestApplyFiles_PerItemFailuresDoNotAbort(t *testing.T) {
	f := newFixture(t)
	for _, k := range []string{"gameshelf/o-1/covers/a-1", "gameshelf/o-1/covers/b-1", "gameshelf/o-1/covers/c-1"} {
		f.blobs.Put(k)
	}
	f.blobs.DeleteErr = func(key string) error {
		if key == "gameshelf/o-1/covers/b-1" {
			return errors.New("boom")
		}
		return nil
	}
	s := f.scanner(0)
	report, err := s.Files(context.Background(), scan.FileOptions{})
	require.NoError(t, err)

	res := s.ApplyFiles(context.Background(), report)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, 1, res.Failed)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "b-1")
}

// --- Folders ---

func TestFolders_DetectsOrphansAndRenames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := testsupport.NewOwner(t, f.store, "Ana", "free")
	bob := testsupport.NewOwner(t, f.store, "Bob", "free")

	f.blobs.Put("gameshelf/" + locator.OwnerFolder("Ana", ana.ID) + "/covers/a-1")
	f.blobs.Put("gameshelf/" + locator.OwnerFolder("Robert", bob.ID) + "/covers/b-1")
	f.blobs.Put("gameshelf/gone-42/covers/c-1")
	f.blobs.Put("gameshelf/gone-42/screenshots/d-1")

	s := f.scanner(0)
	report, err := s.Folders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Listed)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, "gameshelf/gone-42", report.Orphans[0].Path)
	require.Len(t, report.Renamed, 1)
	assert.Equal(t, bob.ID, report.Renamed[0].OwnerID)

	res := s.ApplyFolders(ctx, report)
	assert.Equal(t, 1, res.Deleted)
	assert.NoError(t, res.Err)
	assert.False(t, f.blobs.Has("gameshelf/gone-42/covers/c-1"))
	assert.Equal(t, []string{
		"gameshelf/gone-42/covers",
		"gameshelf/gone-42/screenshots",
		"gameshelf/gone-42",
	}, f.blobs.DeletedDirs)
	assert.Len(t, f.blobs.Keys(), 2, "live and renamed folders are untouched")
}

// --- Prune ---

func TestPrune_ChildrenBeforeParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.blobs.AddFolder("gameshelf/a/covers")
	f.blobs.Put("gameshelf/a/screenshots/s-1")
	f.blobs.AddFolder("gameshelf/b/covers/deep")
	f.blobs.AddFolder("gameshelf/b/screenshots")

	s := f.scanner(0)
	report, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gameshelf/a/covers",
		"gameshelf/b/covers/deep",
		"gameshelf/b/covers",
		"gameshelf/b/screenshots",
		"gameshelf/b",
	}, report.Empty)

	res := s.ApplyPrune(ctx, report)
	assert.Equal(t, 5, res.Deleted)
	assert.Equal(t, report.Empty, f.blobs.DeletedDirs)

	pos := map[string]int{}
	for i, p := range f.blobs.DeletedDirs {
		pos[p] = i
	}
	assert.Less(t, pos["gameshelf/b/covers/deep"], pos["gameshelf/b/covers"])
	assert.Less(t, pos["gameshelf/b/covers"], pos["gameshelf/b"])
	assert.NotContains(t, f.blobs.DeletedDirs, "gameshelf/a")
	assert.NotContains(t, f.blobs.DeletedDirs, "gameshelf")
}

func TestApplyPrune_SkipsParentOfFailedChild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.blobs.AddFolder("gameshelf/b/covers")
	f.blobs.DeleteFolderErr = func(p string) error {
		if p == "gameshelf/b/covers" {
			return errors.New("denied")
		}
		return nil
	}

	s := f.scanner(0)
	report, err := s.Prune(ctx)
	require.NoError(t, err)
	res := s.ApplyPrune(ctx, report)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, f.blobs.DeletedDirs)
}

// --- Records ---

func TestRecords_OrphansAndInactiveOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := testsupport.NewOwner(t, f.store, "Ana", "free")
	idle := testsupport.NewOwner(t, f.store, "Idle", "free")
	keep := testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: ana.ID, Title: "T", Platform: "P"})
	orphan := testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: "deleted-owner", Title: "T", Platform: "P"})

	s := f.scanner(0)
	report, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, orphan.ID, report.Orphans[0].ID)
	require.Len(t, report.Inactive, 1)
	assert.Equal(t, idle.ID, report.Inactive[0].ID)

	res := s.ApplyRecords(ctx, report)
	assert.Equal(t, scan.Result{Category: scan.CategoryRecords, Attempted: 1, Deleted: 1}, res)

	_, err = f.store.Record(ctx, keep.ID)
	assert.NoError(t, err)
	_, err = f.store.Record(ctx, orphan.ID)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

// --- Reconcile ---

func TestReconcile_DryRunThenApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.blobs.Put("gameshelf/gone-1/covers/x-1")
	testsupport.NewRecord(t, f.store, catalog.Record{OwnerID: "gone", Title: "T", Platform: "P"})

	s := f.scanner(0)
	dry, err := s.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Len(t, dry.Files.Orphans, 1)
	assert.Len(t, dry.Records.Orphans, 1)
	assert.Empty(t, dry.Results)
	assert.Empty(t, f.blobs.Deleted)

	applied, err := s.Reconcile(ctx, true)
	require.NoError(t, err)
	require.Len(t, applied.Results, 3)
	assert.Empty(t, f.blobs.Keys())
	assert.Contains(t, f.blobs.DeletedDirs, "gameshelf/gone-1", "folders emptied by the file pass are pruned")

	again, err := s.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, again.Files.Orphans)
	assert.Empty(t, again.Prune.Empty)
	assert.Empty(t, again.Records.Orphans)
}

func TestParseCompareMode(t *testing.T) {
	m, err := scan.ParseCompareMode("LOCATOR")
	require.NoError(t, err)
	assert.Equal(t, scan.CompareLocator, m)
	_, err = scan.ParseCompareMode("hash")
	assert.Error(t, err)
}

func TestValidateIgnore(t *testing.T) {
	assert.NoError(t, scan.ValidateIgnore([]string{"gameshelf/**", "*.tmp"}))
	assert.Error(t, scan.ValidateIgnore([]string{"gameshelf/[oops"}))
}
