package scan

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
)

// CompareMode selects how listed blobs are matched to stored references.
type CompareMode string

const (
	// CompareKey extracts the storage key from both sides. Version segments
	// and query strings do not cause false orphans.
	CompareKey CompareMode = "key"
	// CompareLocator matches the full locator string.
	CompareLocator CompareMode = "locator"
)

// ParseCompareMode accepts "key" or "locator".
func ParseCompareMode(s string) (CompareMode, error) {
	switch CompareMode(strings.ToLower(s)) {
	case CompareKey, "":
		return CompareKey, nil
	case CompareLocator:
		return CompareLocator, nil
	}
	return "", fmt.Errorf("unknown compare mode %q (want key or locator)", s)
}

// FileOptions tunes a flat-file scan.
type FileOptions struct {
	// Global lists the whole store instead of the root prefix.
	Global  bool
	Compare CompareMode
}

// FileReport is the outcome of a flat-file scan.
type FileReport struct {
	Compare  CompareMode
	Global   bool
	Records  int
	Expected int
	Scanned  int
	Ignored  int
	// Unresolvable counts stored locators no key could be extracted from.
	Unresolvable int
	Orphans      []blobstore.Object
	// Misplaced blobs sit outside the root and are unreferenced. They are
	// reported, never deleted.
	Misplaced []blobstore.Object
}

// Files lists every blob and reports those no record references.
func (s *Scanner) Files(ctx context.Context, opts FileOptions) (*FileReport, error) {
	if opts.Compare == "" {
		opts.Compare = CompareKey
	}

	refs, err := s.meta.AllRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing record references: %w", err)
	}

	report := &FileReport{Compare: opts.Compare, Global: opts.Global, Records: len(refs)}
	expected := make(map[string]bool)
	for _, r := range refs {
		for _, loc := range r.Locators {
			if opts.Compare == CompareLocator {
				expected[loc] = true
				continue
			}
			ref := s.codec.Decode(loc)
			if !ref.Resolved() {
				report.Unresolvable++
				s.log.Warn("unresolvable locator", zap.String("record", r.ID), zap.String("locator", loc))
				continue
			}
			expected[ref.Key] = true
		}
	}
	report.Expected = len(expected)

	prefix := s.rootPrefix()
	if opts.Global {
		prefix = ""
	}

	err = blobstore.Walk(ctx, s.blobs, prefix, s.pageSize, func(obj blobstore.Object) error {
		report.Scanned++
		if s.ignored(obj.Key) {
			report.Ignored++
			return nil
		}
		id := obj.Key
		if opts.Compare == CompareLocator {
			id = obj.Locator
		}
		if expected[id] {
			return nil
		}
		if !strings.HasPrefix(obj.Key, s.rootPrefix()) {
			report.Misplaced = append(report.Misplaced, obj)
			return nil
		}
		report.Orphans = append(report.Orphans, obj)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing blobs (no deletions attempted): %w", err)
	}

	s.metrics.OrphansFound(CategoryFiles, len(report.Orphans))
	s.log.Info("file scan",
		zap.String("compare", string(opts.Compare)),
		zap.Bool("global", opts.Global),
		zap.Int("scanned", report.Scanned),
		zap.Int("expected", report.Expected),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("misplaced", len(report.Misplaced)))
	return report, nil
}

// ApplyFiles deletes every orphan blob in the report. Misplaced blobs are
// left alone.
func (s *Scanner) ApplyFiles(ctx context.Context, report *FileReport) Result {
	t := newTally(CategoryFiles, s.log)
	for _, obj := range report.Orphans {
		t.record(obj.Key, s.blobs.Delete(ctx, obj.Key))
	}
	return t.done(s.metrics)
}
