package scan

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// RenamedFolder is an owner folder named after an older display name.
type RenamedFolder struct {
	Folder  blobstore.Folder
	OwnerID string
}

// FolderReport is the outcome of an owner-folder scan.
type FolderReport struct {
	Owners  int
	Listed  int
	Ignored int
	Orphans []blobstore.Folder
	// Renamed folders still belong to a live owner and are never deleted.
	Renamed []RenamedFolder
}

// Folders compares the owner folders under the root with the folders every
// current owner derives to.
func (s *Scanner) Folders(ctx context.Context) (*FolderReport, error) {
	owners, err := s.meta.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	expected := make(map[string]bool, len(owners))
	ids := make([]string, 0, len(owners))
	for _, o := range owners {
		expected[locator.OwnerFolder(o.DisplayName, o.ID)] = true
		ids = append(ids, o.ID)
	}

	folders, err := s.blobs.ListFolders(ctx, s.codec.Root)
	if err != nil {
		return nil, fmt.Errorf("listing owner folders: %w", err)
	}

	report := &FolderReport{Owners: len(owners), Listed: len(folders)}
	for _, f := range folders {
		switch {
		case expected[f.Name]:
		case s.ignored(f.Path):
			report.Ignored++
		default:
			if id, ok := ownerSuffix(f.Name, ids); ok {
				report.Renamed = append(report.Renamed, RenamedFolder{Folder: f, OwnerID: id})
				continue
			}
			report.Orphans = append(report.Orphans, f)
		}
	}

	s.metrics.OrphansFound(CategoryFolders, len(report.Orphans))
	s.log.Info("folder scan",
		zap.Int("owners", report.Owners),
		zap.Int("listed", report.Listed),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("renamed", len(report.Renamed)))
	return report, nil
}

// ownerSuffix reports the owner whose id ends the folder name.
func ownerSuffix(name string, ids []string) (string, bool) {
	for _, id := range ids {
		if strings.HasSuffix(name, "-"+id) {
			return id, true
		}
	}
	return "", false
}

// ApplyFolders deletes every blob under each orphan folder, kind subfolder
// by kind subfolder, then the folder itself.
func (s *Scanner) ApplyFolders(ctx context.Context, report *FolderReport) Result {
	t := newTally(CategoryFolders, s.log)
	for _, f := range report.Orphans {
		t.record(f.Path, s.removeFolder(ctx, f))
	}
	return t.done(s.metrics)
}

func (s *Scanner) removeFolder(ctx context.Context, f blobstore.Folder) error {
	subs, err := s.blobs.ListFolders(ctx, f.Path)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		n, err := s.blobs.DeletePrefix(ctx, sub.Path+"/")
		if err != nil {
			return err
		}
		s.log.Debug("deleted folder contents", zap.String("folder", sub.Path), zap.Int("blobs", n))
		if err := s.blobs.DeleteFolder(ctx, sub.Path); err != nil {
			return err
		}
	}
	if _, err := s.blobs.DeletePrefix(ctx, f.Path+"/"); err != nil {
		return err
	}
	return s.blobs.DeleteFolder(ctx, f.Path)
}
