package blobstore

import (
	"context"
	"fmt"
)

// Walk visits every object under prefix, one page at a time. Any listing
// error ends the walk and is returned; callers must not act on a partial
// listing.
func Walk(ctx context.Context, s Store, prefix string, pageSize int, fn func(Object) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := s.ListObjects(ctx, prefix, cursor, pageSize)
		if err != nil {
			return fmt.Errorf("listing %q: %w", prefix, err)
		}
		for _, obj := range page.Objects {
			if err := fn(obj); err != nil {
				return err
			}
		}
		if page.NextCursor == "" || page.NextCursor == cursor {
			return nil
		}
		cursor = page.NextCursor
	}
}

// IsEmpty reports whether no object exists under prefix.
func IsEmpty(ctx context.Context, s Store, prefix string) (bool, error) {
	page, err := s.ListObjects(ctx, prefix, "", 1)
	if err != nil {
		return false, err
	}
	return len(page.Objects) == 0, nil
}
