package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/blobstore/cdn"
	"github.com/blackwell-systems/gameshelf/internal/blobstore/local"
	"github.com/blackwell-systems/gameshelf/internal/blobstore/s3"
	"github.com/blackwell-systems/gameshelf/internal/config"
	"github.com/blackwell-systems/gameshelf/internal/locator"
	"github.com/blackwell-systems/gameshelf/internal/media"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
	"github.com/blackwell-systems/gameshelf/internal/metrics"
	"github.com/blackwell-systems/gameshelf/internal/scan"
)

// runtime holds the collaborators a command works with.
type runtime struct {
	log     *zap.Logger
	store   *metadata.Store
	blobs   blobstore.Store
	codec   *locator.Codec
	metrics *metrics.Metrics
}

// openStore opens only the metadata store, for commands that never touch blobs.
func openStore() (*metadata.Store, error) {
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("database.path must not be empty")
	}
	store, err := metadata.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	return store, nil
}

// openRuntime validates the config and opens both stores. m may be nil.
func openRuntime(m *metrics.Metrics) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := scan.ValidateIgnore(cfg.Scan.Ignore); err != nil {
		return nil, fmt.Errorf("invalid config: scan.ignore: %w", err)
	}

	blobs, err := openBlobs(cfg.Storage)
	if err != nil {
		return nil, err
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	return &runtime{
		log:     logger,
		store:   store,
		blobs:   blobstore.Observe(blobs, logger, m),
		codec:   locator.New(cfg.Storage.Root),
		metrics: m,
	}, nil
}

func openBlobs(sc config.StorageConfig) (blobstore.Store, error) {
	switch sc.Backend {
	case config.BackendCDN:
		return cdn.New(cdn.Options{
			Cloud:     sc.CDN.Cloud,
			APIKey:    sc.CDN.APIKey,
			APISecret: sc.CDN.APISecret,
			APIBase:   sc.CDN.APIBase,
		}), nil
	case config.BackendS3:
		store, err := s3.New(s3.Options{
			Endpoint:  sc.S3.Endpoint,
			Bucket:    sc.S3.Bucket,
			Region:    sc.S3.Region,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			Secure:    sc.S3.Secure,
			PublicURL: sc.S3.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("opening s3 store: %w", err)
		}
		return store, nil
	case config.BackendLocal:
		return local.NewOS(sc.Local.Dir, sc.Local.PublicURL), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.log.Warn("closing metadata store", zap.Error(err))
	}
}

func (r *runtime) deps() media.Deps {
	return media.Deps{
		Blobs:   r.blobs,
		Records: r.store,
		Codec:   r.codec,
		Plans:   cfg.Plans,
		Log:     r.log,
		Metrics: r.metrics,
	}
}

func (r *runtime) scanner() *scan.Scanner {
	return scan.New(scan.Options{
		Blobs:    r.blobs,
		Meta:     r.store,
		Codec:    r.codec,
		PageSize: cfg.Storage.PageSize,
		Ignore:   cfg.Scan.Ignore,
		Log:      r.log,
		Metrics:  r.metrics,
	})
}
