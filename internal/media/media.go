// Package media runs the record mutations that span the metadata store and
// the blob store. Creates and updates upload first and compensate on any
// later failure; updates and deletes touch blobs only after metadata has
// committed.
package media

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/locator"
	"github.com/blackwell-systems/gameshelf/internal/metrics"
)

// maxUploads is the most assets one request may carry.
const maxUploads = 2 + catalog.MaxScreenshots

// compensationWorkers bounds concurrent compensating deletes.
const compensationWorkers = 4

// Records is the slice of the metadata store mutations need.
type Records interface {
	Owner(ctx context.Context, id string) (*catalog.Owner, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Record(ctx context.Context, id string) (*catalog.Record, error)
	CreateRecord(ctx context.Context, r *catalog.Record) error
	UpdateRecord(ctx context.Context, r *catalog.Record) error
	DeleteRecord(ctx context.Context, id string) error
}

// File is one uploaded asset.
type File struct {
	Name        string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Assets are the uploads carried by one request.
type Assets struct {
	Cover       *File
	BackCover   *File
	Screenshots []File
}

// Count returns the number of files.
func (a Assets) Count() int {
	n := len(a.Screenshots)
	if a.Cover != nil {
		n++
	}
	if a.BackCover != nil {
		n++
	}
	return n
}

func (a Assets) check() error {
	if len(a.Screenshots) > catalog.MaxScreenshots || a.Count() > maxUploads {
		return &ValidationError{Fields: catalog.FieldErrors{
			"screenshots": fmt.Sprintf("at most %d per request", catalog.MaxScreenshots),
		}}
	}
	return nil
}

// Deps are the collaborators shared by Coordinator and Reconciler.
type Deps struct {
	Blobs   blobstore.Store
	Records Records
	Codec   *locator.Codec
	// Plans maps plan name to record limit. Negative means unlimited.
	Plans   map[string]int
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// ownerFolder resolves the owner and derives its folder.
func (d Deps) ownerFolder(ctx context.Context, ownerID string) (*catalog.Owner, string, error) {
	owner, err := d.Records.Owner(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}
	return owner, locator.OwnerFolder(owner.DisplayName, owner.ID), nil
}
