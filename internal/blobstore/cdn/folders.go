package cdn

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
)

// ListFolders returns the immediate sub-folders of path. An empty path lists
// the root folders. A missing folder has no sub-folders.
func (c *Client) ListFolders(ctx context.Context, path string) ([]blobstore.Folder, error) {
	parts := []string{"folders"}
	if path != "" {
		parts = append(parts, path)
	}

	var out struct {
		Folders []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"folders"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.url(nil, parts...), nil, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, blobstore.Error.Wrap(fmt.Errorf("list folders %q: %w", path, err))
	}

	folders := make([]blobstore.Folder, 0, len(out.Folders))
	for _, f := range out.Folders {
		folders = append(folders, blobstore.Folder{Name: f.Name, Path: f.Path})
	}
	return folders, nil
}

// DeleteFolder removes an empty folder. The CDN refuses to delete folders that
// still hold resources or sub-folders.
func (c *Client) DeleteFolder(ctx context.Context, path string) error {
	err := c.doJSON(ctx, http.MethodDelete, c.url(nil, "folders", path), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return blobstore.Error.Wrap(fmt.Errorf("delete folder %q: %w", path, err))
	}
	return nil
}

var _ blobstore.Store = (*Client)(nil)
