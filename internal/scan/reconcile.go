package scan

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job names reported to metrics.
const (
	JobFiles   = "orphan_files"
	JobPrune   = "prune"
	JobRecords = "orphan_records"
)

// Pass is the outcome of one reconciliation pass.
type Pass struct {
	Started time.Time
	Took    time.Duration
	Applied bool
	Files   *FileReport
	Prune   *PruneReport
	Records *RecordReport
	Results []Result
}

// Reconcile runs the file scan (key comparison), empty-folder pruning and
// the orphan-record scan, in that order. With apply false it only reports.
// The first listing failure ends the pass.
func (s *Scanner) Reconcile(ctx context.Context, apply bool) (*Pass, error) {
	pass := &Pass{Started: time.Now(), Applied: apply}
	defer func() { pass.Took = time.Since(pass.Started) }()

	files, err := s.Files(ctx, FileOptions{Compare: CompareKey})
	s.metrics.JobRun(JobFiles, err)
	if err != nil {
		return pass, err
	}
	pass.Files = files
	if apply {
		pass.Results = append(pass.Results, s.ApplyFiles(ctx, files))
	}

	prune, err := s.Prune(ctx)
	s.metrics.JobRun(JobPrune, err)
	if err != nil {
		return pass, err
	}
	pass.Prune = prune
	if apply {
		pass.Results = append(pass.Results, s.ApplyPrune(ctx, prune))
	}

	records, err := s.Records(ctx)
	s.metrics.JobRun(JobRecords, err)
	if err != nil {
		return pass, err
	}
	pass.Records = records
	if apply {
		pass.Results = append(pass.Results, s.ApplyRecords(ctx, records))
	}

	s.log.Info("reconcile pass finished",
		zap.Bool("applied", apply),
		zap.Int("orphan_files", len(files.Orphans)),
		zap.Int("empty_folders", len(prune.Empty)),
		zap.Int("orphan_records", len(records.Orphans)),
		zap.Duration("took", time.Since(pass.Started)))
	return pass, nil
}
