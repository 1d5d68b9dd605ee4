package media

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
)

// Patch lists the scalar fields an update changes. Nil leaves a field as is.
type Patch struct {
	Title       *string
	Platform    *string
	Publisher   *string
	ReleaseYear *int
}

func (p Patch) apply(r *catalog.Record) {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Platform != nil {
		r.Platform = strings.TrimSpace(*p.Platform)
	}
	if p.Publisher != nil {
		r.Publisher = strings.TrimSpace(*p.Publisher)
	}
	if p.ReleaseYear != nil {
		r.ReleaseYear = *p.ReleaseYear
	}
}

// UpdateRequest changes fields and assets of one record. A new cover or back
// cover replaces the old one; screenshots are appended.
type UpdateRequest struct {
	RecordID string
	// IfVersion, when non-zero, must match the stored version.
	IfVersion int64
	Patch     Patch
	Assets    Assets
}

// UpdateResult describes a committed update.
type UpdateResult struct {
	Record *catalog.Record
	// Superseded counts deletes of replaced covers after the commit.
	Superseded DeleteResult
	// Dropped are screenshots pushed out by the limit. Their blobs are left
	// for the orphan scanner.
	Dropped []string
}

// Reconciler updates and deletes records, removing superseded assets only
// once the metadata write has committed.
type Reconciler struct {
	d Deps
}

// NewReconciler creates a Reconciler.
func NewReconciler(d Deps) *Reconciler {
	return &Reconciler{d: d.withDefaults()}
}

// Update applies req. If the save fails, the newly uploaded assets are
// deleted and the stored record keeps its old references.
func (r *Reconciler) Update(ctx context.Context, req UpdateRequest) (_ *UpdateResult, err error) {
	if err := req.Assets.check(); err != nil {
		return nil, err
	}
	rec, err := r.d.Records.Record(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	if req.IfVersion != 0 && req.IfVersion != rec.Version {
		return nil, fmt.Errorf("record %s is at version %d, not %d: %w",
			rec.ID, rec.Version, req.IfVersion, metadata.ErrConflict)
	}
	_, folder, err := r.d.ownerFolder(ctx, rec.OwnerID)
	if err != nil {
		return nil, err
	}

	s := r.d.newSaga(folder)
	defer func() {
		if err != nil {
			s.compensate(ctx, err)
		}
	}()

	up, err := s.uploadAll(ctx, req.Assets)
	if err != nil {
		return nil, err
	}

	next := rec.Clone()
	req.Patch.apply(&next)

	var superseded []string
	if up.cover != "" {
		if rec.Cover != "" {
			superseded = append(superseded, rec.Cover)
		}
		next.Cover = up.cover
	}
	if up.backCover != "" {
		if rec.BackCover != "" {
			superseded = append(superseded, rec.BackCover)
		}
		next.BackCover = up.backCover
	}
	dropped := next.AppendScreenshots(up.screenshots...)

	if fields := next.Validate(); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if err = r.d.Records.UpdateRecord(ctx, &next); err != nil {
		return nil, persistErr(err)
	}

	res := &UpdateResult{Record: &next, Dropped: dropped}
	res.Superseded = r.d.deleteLocators(ctx, next.ID, superseded)

	r.d.Log.Info("record updated",
		zap.String("record", next.ID),
		zap.Int64("version", next.Version),
		zap.Int("uploaded", req.Assets.Count()),
		zap.Int("superseded", len(superseded)),
		zap.Int("dropped_screenshots", len(dropped)))
	return res, nil
}

// Delete removes the record, then each of its assets independently. Asset
// delete failures are logged and counted; the delete still succeeds.
func (r *Reconciler) Delete(ctx context.Context, recordID string) (DeleteResult, error) {
	rec, err := r.d.Records.Record(ctx, recordID)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := r.d.Records.DeleteRecord(ctx, rec.ID); err != nil {
		return DeleteResult{}, persistErr(err)
	}

	res := r.d.deleteLocators(ctx, rec.ID, rec.Locators())
	r.d.Log.Info("record deleted",
		zap.String("record", rec.ID),
		zap.Int("assets_deleted", res.Deleted),
		zap.Int("assets_failed", res.Failed),
		zap.Int("assets_skipped", res.Skipped))
	return res, nil
}
