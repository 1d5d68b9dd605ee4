package cdn

import "github.com/blackwell-systems/gameshelf/internal/blobstore"

// Common CDN API errors.
var (
	// ErrNotFound is returned when a resource or folder does not exist.
	ErrNotFound = blobstore.ErrNotFound
	// ErrUnauthorized is returned when the API key or secret is rejected.
	ErrUnauthorized = blobstore.ErrUnauthorized
	// ErrConflict is returned when a folder still holds resources.
	ErrConflict = blobstore.ErrFolderNotEmpty
)
