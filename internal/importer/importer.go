// Package importer merges an externally supplied record list into one
// owner's collection by natural key (title and platform).
//
// Matching entries overwrite the existing record, new ones are inserted.
// There is no conflict detection: the import always wins.
package importer

import (
	"context"
	"fmt"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
)

// Store is the slice of the metadata store the importer needs.
type Store interface {
	Owner(ctx context.Context, id string) (*catalog.Owner, error)
	RecordsByOwner(ctx context.Context, ownerID string) ([]catalog.Record, error)
	ApplyBatch(ctx context.Context, ops []metadata.Op) []metadata.OpResult
}

// Skip records an entry left out of the plan.
type Skip struct {
	Index  int
	Reason string
}

// Plan is the merge of one payload against an owner's records.
type Plan struct {
	OwnerID string
	Ops     []metadata.Op
	Skipped []Skip
}

// Counts returns the planned inserts and updates.
func (p *Plan) Counts() (inserts, updates int) {
	for _, op := range p.Ops {
		if op.Kind == metadata.OpUpdate {
			updates++
		} else {
			inserts++
		}
	}
	return inserts, updates
}

// Summary reports an import.
type Summary struct {
	Inserted int
	Updated  int
	Skipped  int
	Failed   int
	// Err combines per-operation failures.
	Err error
}

// Importer merges payloads.
type Importer struct {
	store Store
	log   *zap.Logger
}

// New creates an Importer. A nil log discards output.
func New(store Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, log: log.Named("import")}
}

// Plan builds the merge plan without writing anything.
func (im *Importer) Plan(ctx context.Context, ownerID string, entries []catalog.Entry) (*Plan, error) {
	owner, err := im.store.Owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	existing, err := im.store.RecordsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	byKey := make(map[string]catalog.Record, len(existing))
	for _, r := range existing {
		byKey[r.NaturalKey()] = r
	}

	plan := &Plan{OwnerID: owner.ID}
	for i, e := range entries {
		if !e.Complete() {
			plan.Skipped = append(plan.Skipped, Skip{Index: i, Reason: "missing title or platform"})
			continue
		}

		var rec catalog.Record
		kind := metadata.OpInsert
		cur, matched := byKey[e.NaturalKey()]
		if matched {
			rec = cur.Clone()
			kind = metadata.OpUpdate
		}
		e.Apply(&rec)
		rec.OwnerID = owner.ID
		if matched {
			rec.ID = cur.ID
		}
		if fe := rec.Validate(); fe != nil {
			plan.Skipped = append(plan.Skipped, Skip{Index: i, Reason: "invalid " + fe.String()})
			continue
		}
		plan.Ops = append(plan.Ops, metadata.Op{Kind: kind, Record: rec})
	}
	return plan, nil
}

// Apply writes the plan as one unordered batch. Failed operations are
// counted and logged; the rest still apply.
func (im *Importer) Apply(ctx context.Context, plan *Plan) Summary {
	sum := Summary{Skipped: len(plan.Skipped)}
	var group errs.Group
	for _, res := range im.store.ApplyBatch(ctx, plan.Ops) {
		if res.Err != nil {
			sum.Failed++
			group.Add(fmt.Errorf("%s %q: %w", res.Op.Kind, res.Op.Record.Title, res.Err))
			im.log.Warn("import operation failed",
				zap.String("op", res.Op.Kind.String()),
				zap.String("record", res.Op.Record.ID),
				zap.String("title", res.Op.Record.Title),
				zap.Error(res.Err))
			continue
		}
		if res.Op.Kind == metadata.OpUpdate {
			sum.Updated++
		} else {
			sum.Inserted++
		}
	}
	sum.Err = group.Err()

	im.log.Info("import applied",
		zap.String("owner", plan.OwnerID),
		zap.Int("inserted", sum.Inserted),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed))
	return sum
}

// Import plans and, unless dryRun, applies. A dry run reports the planned
// counts.
func (im *Importer) Import(ctx context.Context, ownerID string, entries []catalog.Entry, dryRun bool) (Summary, error) {
	plan, err := im.Plan(ctx, ownerID, entries)
	if err != nil {
		return Summary{}, err
	}
	if dryRun {
		inserts, updates := plan.Counts()
		return Summary{Inserted: inserts, Updated: updates, Skipped: len(plan.Skipped)}, nil
	}
	return im.Apply(ctx, plan), nil
}
