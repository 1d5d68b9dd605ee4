package scan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
)

// RecordReport is the outcome of an orphan-record scan.
type RecordReport struct {
	Owners  int
	Records int
	// Orphans are records whose owner is missing.
	Orphans []metadata.RecordRefs
	// Inactive owners hold no records. Informational only.
	Inactive []catalog.Owner
}

// Records finds records whose owner no longer exists, and owners with no
// records.
func (s *Scanner) Records(ctx context.Context) (*RecordReport, error) {
	owners, err := s.meta.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	refs, err := s.meta.AllRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	counts, err := s.meta.RecordCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	known := make(map[string]bool, len(owners))
	for _, o := range owners {
		known[o.ID] = true
	}

	report := &RecordReport{Owners: len(owners), Records: len(refs)}
	for _, r := range refs {
		if r.OwnerID == "" || !known[r.OwnerID] {
			report.Orphans = append(report.Orphans, r)
		}
	}
	for _, o := range owners {
		if counts[o.ID] == 0 {
			report.Inactive = append(report.Inactive, o)
		}
	}

	s.metrics.OrphansFound(CategoryRecords, len(report.Orphans))
	s.log.Info("record scan",
		zap.Int("owners", report.Owners),
		zap.Int("records", report.Records),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("inactive_owners", len(report.Inactive)))
	return report, nil
}

// ApplyRecords bulk-deletes exactly the orphan records in the report. Their
// assets become orphan blobs for the next file scan.
func (s *Scanner) ApplyRecords(ctx context.Context, report *RecordReport) Result {
	t := newTally(CategoryRecords, s.log)
	if len(report.Orphans) == 0 {
		return t.done(s.metrics)
	}

	ids := make([]string, len(report.Orphans))
	for i, r := range report.Orphans {
		ids[i] = r.ID
	}
	n, err := s.meta.DeleteRecords(ctx, ids)

	t.res.Attempted = len(ids)
	t.res.Deleted = n
	if err != nil {
		t.res.Failed = len(ids) - n
		t.group.Add(err)
		s.log.Warn("bulk record delete failed", zap.Int("deleted", n), zap.Error(err))
	} else {
		// already gone
		t.res.Skipped = len(ids) - n
	}
	return t.done(s.metrics)
}
