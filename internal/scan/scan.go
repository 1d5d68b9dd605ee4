// Package scan finds drift between the metadata store and the blob store.
//
// Every scanner is split in two: a read-only pass that returns a report
// (the dry run), and an Apply call that deletes exactly what the report
// lists. A listing failure fails the read-only pass, so nothing is ever
// deleted from a partial view. Per-item delete failures are counted and
// never stop the remaining deletions.
package scan

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/locator"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
	"github.com/blackwell-systems/gameshelf/internal/metrics"
)

// Categories label results and metrics.
const (
	CategoryFolders = "folders"
	CategoryFiles   = "files"
	CategoryPrune   = "empty_folders"
	CategoryRecords = "records"
)

// Metadata is the slice of the metadata store the scanners read.
type Metadata interface {
	Owners(ctx context.Context) ([]catalog.Owner, error)
	AllRefs(ctx context.Context) ([]metadata.RecordRefs, error)
	RecordCounts(ctx context.Context) (map[string]int, error)
	DeleteRecords(ctx context.Context, ids []string) (int, error)
}

// Options configures a Scanner.
type Options struct {
	Blobs    blobstore.Store
	Meta     Metadata
	Codec    *locator.Codec
	PageSize int
	// Ignore holds doublestar patterns; matching keys and folders are never
	// reported.
	Ignore  []string
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// Scanner runs the orphan scans.
type Scanner struct {
	blobs    blobstore.Store
	meta     Metadata
	codec    *locator.Codec
	pageSize int
	ignore   []string
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = blobstore.DefaultPageSize
	}
	return &Scanner{
		blobs:    opts.Blobs,
		meta:     opts.Meta,
		codec:    opts.Codec,
		pageSize: pageSize,
		ignore:   opts.Ignore,
		log:      log.Named("scan"),
		metrics:  opts.Metrics,
	}
}

// ValidateIgnore reports the first malformed ignore pattern.
func ValidateIgnore(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return errs.New("invalid ignore pattern %q", p)
		}
	}
	return nil
}

func (s *Scanner) ignored(name string) bool {
	for _, p := range s.ignore {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) rootPrefix() string {
	return s.codec.Root + "/"
}

// Result counts the outcome of applying one report.
type Result struct {
	Category  string
	Attempted int
	Deleted   int
	Failed    int
	Skipped   int
	// Err combines the per-item failures, nil when there were none.
	Err error
}

type tally struct {
	res   Result
	group errs.Group
	log   *zap.Logger
}

func newTally(category string, log *zap.Logger) *tally {
	return &tally{res: Result{Category: category}, log: log}
}

func (t *tally) record(item string, err error) {
	t.res.Attempted++
	if err != nil {
		t.res.Failed++
		t.group.Add(fmt.Errorf("%s: %w", item, err))
		t.log.Warn("delete failed", zap.String("category", t.res.Category), zap.String("item", item), zap.Error(err))
		return
	}
	t.res.Deleted++
}

func (t *tally) skip(item, reason string) {
	t.res.Skipped++
	t.log.Warn("delete skipped", zap.String("category", t.res.Category), zap.String("item", item), zap.String("reason", reason))
}

func (t *tally) done(m *metrics.Metrics) Result {
	t.res.Err = t.group.Err()
	m.OrphansDeleted(t.res.Category, t.res.Deleted, t.res.Failed)
	return t.res
}
