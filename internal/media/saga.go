package media

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// saga tracks the blobs written by one operation so they can be removed if
// a later step fails.
type saga struct {
	d        Deps
	folder   string
	uploaded []blobstore.Object
}

func (d Deps) newSaga(ownerFolder string) *saga {
	return &saga{d: d, folder: ownerFolder}
}

// upload writes one file and records it for compensation.
func (s *saga) upload(ctx context.Context, kind locator.AssetKind, f File) (blobstore.Object, error) {
	target := s.d.Codec.UploadTarget(s.folder, kind, f.Name)
	obj, err := s.d.Blobs.Upload(ctx, blobstore.Upload{
		Target:      target,
		Body:        f.Body,
		Size:        f.Size,
		ContentType: f.ContentType,
	})
	if err != nil {
		return blobstore.Object{}, err
	}
	s.uploaded = append(s.uploaded, obj)
	return obj, nil
}

// slots holds the locators written for each asset slot.
type slots struct {
	cover       string
	backCover   string
	screenshots []string
}

// uploadAll writes every asset in order. It stops at the first failure;
// what was written before it stays tracked.
func (s *saga) uploadAll(ctx context.Context, a Assets) (slots, error) {
	var out slots
	if a.Cover != nil {
		obj, err := s.upload(ctx, locator.Cover, *a.Cover)
		if err != nil {
			return out, err
		}
		out.cover = obj.Locator
	}
	if a.BackCover != nil {
		obj, err := s.upload(ctx, locator.BackCover, *a.BackCover)
		if err != nil {
			return out, err
		}
		out.backCover = obj.Locator
	}
	for _, f := range a.Screenshots {
		obj, err := s.upload(ctx, locator.Screenshot, f)
		if err != nil {
			return out, err
		}
		out.screenshots = append(out.screenshots, obj.Locator)
	}
	return out, nil
}

// compensate deletes every blob this saga uploaded. Failures are logged and
// counted, never returned: the caller reports the error that triggered the
// rollback. It runs even when ctx is already canceled.
func (s *saga) compensate(ctx context.Context, cause error) {
	if len(s.uploaded) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := s.d.Log.With(zap.NamedError("cause", cause))

	var g errgroup.Group
	g.SetLimit(compensationWorkers)
	for _, obj := range s.uploaded {
		g.Go(func() error {
			err := s.d.Blobs.Delete(ctx, obj.Key)
			s.d.Metrics.Compensation(err)
			if err != nil {
				log.Warn("compensating delete failed",
					zap.String("key", obj.Key),
					zap.String("locator", obj.Locator),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	s.uploaded = nil
}

// DeleteResult counts the outcome of deleting a set of locators.
type DeleteResult struct {
	Deleted int
	Failed  int
	Skipped int // unresolvable locators
}

// deleteLocators removes each locator's blob independently and
// concurrently. Unresolvable locators are skipped with a warning.
func (d Deps) deleteLocators(ctx context.Context, recordID string, locs []string) DeleteResult {
	var (
		mu  sync.Mutex
		res DeleteResult
		g   errgroup.Group
	)
	g.SetLimit(compensationWorkers)
	for _, loc := range locs {
		ref := d.Codec.Decode(loc)
		if !ref.Resolved() {
			d.Log.Warn("skipping unresolvable locator",
				zap.String("record", recordID),
				zap.String("locator", loc),
				zap.Error(ErrMalformedLocator))
			res.Skipped++
			continue
		}
		g.Go(func() error {
			err := d.Blobs.Delete(ctx, ref.Key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				d.Log.Warn("asset delete failed",
					zap.String("record", recordID),
					zap.String("key", ref.Key),
					zap.String("locator", loc),
					zap.Error(err))
				return nil
			}
			res.Deleted++
			return nil
		})
	}
	_ = g.Wait()
	return res
}
