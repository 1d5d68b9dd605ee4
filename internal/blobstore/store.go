// Package blobstore is the narrow gateway every media component uses to talk
// to the external object store. Backends live in sub-packages (cdn, s3,
// local); this package holds the shared interface, error classes and the
// pagination walker.
package blobstore

import (
	"context"
	"io"
	"time"

	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// DefaultPageSize bounds a single listing page.
const DefaultPageSize = 500

// Object is one stored blob.
type Object struct {
	Key       string // storage key without extension
	Format    string // file extension without the dot
	Locator   string // fully-qualified public reference
	Size      int64
	CreatedAt time.Time
}

// Folder is a listed sub-folder.
type Folder struct {
	Name string // last path segment
	Path string // full path from the store root
}

// Page is one page of a cursor listing. NextCursor is empty on the last page.
type Page struct {
	Objects    []Object
	NextCursor string
}

// Upload describes a blob to write.
type Upload struct {
	Target      locator.Target
	Body        io.Reader
	Size        int64
	ContentType string
}

// Store is the capability set the media components depend on.
//
// Delete must treat a missing key as success. ListObjects must be resumable:
// passing the previous page's NextCursor continues the walk.
type Store interface {
	Upload(ctx context.Context, up Upload) (Object, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	DeleteFolder(ctx context.Context, path string) error
	ListFolders(ctx context.Context, path string) ([]Folder, error)
	ListObjects(ctx context.Context, prefix, cursor string, pageSize int) (Page, error)
}
