package scan

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
)

// PruneReport lists empty folders in deletion order: every folder appears
// after all of its sub-folders.
type PruneReport struct {
	Visited int
	Empty   []string
}

// Prune walks the folder tree under the root depth-first and collects the
// folders holding no blobs whose sub-folders are all empty too. The root
// itself is never pruned.
func (s *Scanner) Prune(ctx context.Context) (*PruneReport, error) {
	report := &PruneReport{}
	children, err := s.blobs.ListFolders(ctx, s.codec.Root)
	if err != nil {
		return nil, fmt.Errorf("listing folders under %q: %w", s.codec.Root, err)
	}
	for _, c := range children {
		if _, err := s.visit(ctx, c, report); err != nil {
			return nil, err
		}
	}

	s.metrics.OrphansFound(CategoryPrune, len(report.Empty))
	s.log.Info("prune scan", zap.Int("visited", report.Visited), zap.Int("empty", len(report.Empty)))
	return report, nil
}

// visit reports whether f is empty once its empty sub-folders are gone.
func (s *Scanner) visit(ctx context.Context, f blobstore.Folder, report *PruneReport) (bool, error) {
	report.Visited++
	children, err := s.blobs.ListFolders(ctx, f.Path)
	if err != nil {
		return false, fmt.Errorf("listing folders under %q: %w", f.Path, err)
	}

	empty := true
	for _, c := range children {
		childEmpty, err := s.visit(ctx, c, report)
		if err != nil {
			return false, err
		}
		empty = empty && childEmpty
	}
	if !empty || s.ignored(f.Path) {
		return false, nil
	}

	noBlobs, err := blobstore.IsEmpty(ctx, s.blobs, f.Path+"/")
	if err != nil {
		return false, fmt.Errorf("listing blobs under %q: %w", f.Path, err)
	}
	if !noBlobs {
		return false, nil
	}
	report.Empty = append(report.Empty, f.Path)
	return true, nil
}

// ApplyPrune deletes the folders in report order. A folder whose sub-folder
// failed to delete is skipped.
func (s *Scanner) ApplyPrune(ctx context.Context, report *PruneReport) Result {
	t := newTally(CategoryPrune, s.log)
	failed := make(map[string]bool)
	for _, p := range report.Empty {
		if failed[p] {
			t.skip(p, "sub-folder was not deleted")
			markParents(failed, p)
			continue
		}
		err := s.blobs.DeleteFolder(ctx, p)
		t.record(p, err)
		if err != nil {
			markParents(failed, p)
		}
	}
	return t.done(s.metrics)
}

func markParents(set map[string]bool, p string) {
	for parent := path.Dir(p); parent != "." && parent != "/"; parent = path.Dir(parent) {
		set[parent] = true
	}
}
