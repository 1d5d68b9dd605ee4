package blobstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/metrics"
)

// Observed wraps a Store with debug logging and per-operation metrics.
type Observed struct {
	log   *zap.Logger
	m     *metrics.Metrics
	store Store
}

// Observe decorates store. A nil log disables logging, a nil m disables metrics.
func Observe(store Store, log *zap.Logger, m *metrics.Metrics) *Observed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observed{log: log.Named("blobstore"), m: m, store: store}
}

// Upload writes a blob.
func (o *Observed) Upload(ctx context.Context, up Upload) (_ Object, err error) {
	defer o.track("upload", time.Now(), &err, zap.String("key", up.Target.Key()))
	return o.store.Upload(ctx, up)
}

// Delete removes a blob by key.
func (o *Observed) Delete(ctx context.Context, key string) (err error) {
	defer o.track("delete", time.Now(), &err, zap.String("key", key))
	return o.store.Delete(ctx, key)
}

// DeletePrefix removes every blob under prefix.
func (o *Observed) DeletePrefix(ctx context.Context, prefix string) (_ int, err error) {
	defer o.track("delete_prefix", time.Now(), &err, zap.String("prefix", prefix))
	return o.store.DeletePrefix(ctx, prefix)
}

// DeleteFolder removes an empty folder.
func (o *Observed) DeleteFolder(ctx context.Context, path string) (err error) {
	defer o.track("delete_folder", time.Now(), &err, zap.String("folder", path))
	return o.store.DeleteFolder(ctx, path)
}

// ListFolders lists the immediate sub-folders of path.
func (o *Observed) ListFolders(ctx context.Context, path string) (_ []Folder, err error) {
	defer o.track("list_folders", time.Now(), &err, zap.String("folder", path))
	return o.store.ListFolders(ctx, path)
}

// ListObjects lists one page of objects.
func (o *Observed) ListObjects(ctx context.Context, prefix, cursor string, pageSize int) (_ Page, err error) {
	defer o.track("list_objects", time.Now(), &err,
		zap.String("prefix", prefix),
		zap.String("cursor", cursor),
		zap.Int("page_size", pageSize),
	)
	return o.store.ListObjects(ctx, prefix, cursor, pageSize)
}

func (o *Observed) track(op string, start time.Time, errp *error, fields ...zap.Field) {
	took := time.Since(start)
	o.m.BlobOp(op, took, *errp)
	fields = append(fields, zap.Duration("took", took))
	if *errp != nil {
		o.log.Debug(op+" failed", append(fields, zap.Error(*errp))...)
		return
	}
	o.log.Debug(op, fields...)
}
