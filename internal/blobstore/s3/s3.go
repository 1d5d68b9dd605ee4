// Package s3 implements blobstore.Store on an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// Options configures a Store.
type Options struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Secure    bool
	// PublicURL is the base locators are built from. Defaults to the
	// bucket's path-style URL on the endpoint.
	PublicURL string
}

// objectPrefix holds every blob, so <PublicURL>/upload/<key>.<format>
// dereferences to the stored object.
const objectPrefix = "upload/"

// Store keeps blobs as upload/<key>.<format> objects in one bucket. Objects
// outside upload/ are not part of the store.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// New connects to the endpoint. It does not verify the bucket exists.
func New(opts Options) (*Store, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("s3: endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	public := opts.PublicURL
	if public == "" {
		scheme := "http"
		if opts.Secure {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}
	return &Store{client: client, bucket: opts.Bucket, publicURL: public}, nil
}

// Upload puts the body under upload/<key>.<format>.
func (s *Store) Upload(ctx context.Context, up blobstore.Upload) (blobstore.Object, error) {
	key := up.Target.Key()
	name := objectName(key, up.Target.Format)

	size := up.Size
	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, name, up.Body, size, minio.PutObjectOptions{
		ContentType: up.ContentType,
	})
	if err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("put %q: %w", name, mapErr(err)))
	}

	// PutObject responses usually carry no Last-Modified.
	at := info.LastModified
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.object(key, up.Target.Format, info.Size, at), nil
}

// object builds the listed form of a blob. Locators carry no version
// segment, so an uploaded blob and its later listing share one locator.
func (s *Store) object(key, format string, size int64, at time.Time) blobstore.Object {
	return blobstore.Object{
		Key:       key,
		Format:    format,
		Locator:   locator.Build(s.publicURL, 0, key, format),
		Size:      size,
		CreatedAt: at,
	}
}

// Delete removes every object named upload/<key>.<ext>. A missing key is not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: objectPrefix + key + "."}) {
		if obj.Err != nil {
			return blobstore.Error.Wrap(fmt.Errorf("list %q: %w", key, mapErr(obj.Err)))
		}
		if k, _ := splitName(obj.Key); k != key {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			if isNotFound(err) {
				continue
			}
			return blobstore.Error.Wrap(fmt.Errorf("delete %q: %w", obj.Key, mapErr(err)))
		}
	}
	return nil
}

// DeletePrefix bulk-deletes every object under prefix. The listing is
// completed before anything is removed.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: objectPrefix + prefix, Recursive: true}) {
		if obj.Err != nil {
			return 0, blobstore.Error.Wrap(fmt.Errorf("list %q: %w", prefix, mapErr(obj.Err)))
		}
		names = append(names, obj.Key)
	}
	if len(names) == 0 {
		return 0, nil
	}

	objects := make(chan minio.ObjectInfo, len(names))
	for _, name := range names {
		objects <- minio.ObjectInfo{Key: name}
	}
	close(objects)

	failed := 0
	var firstErr error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("delete %q: %w", rerr.ObjectName, mapErr(rerr.Err))
		}
	}
	if firstErr != nil {
		return len(names) - failed, blobstore.Error.Wrap(firstErr)
	}
	return len(names), nil
}

// DeleteFolder is a no-op: bucket folders exist only while objects do.
func (s *Store) DeleteFolder(ctx context.Context, folder string) error {
	return nil
}

// ListFolders returns the common prefixes directly under folder.
func (s *Store) ListFolders(ctx context.Context, folder string) ([]blobstore.Folder, error) {
	prefix := objectPrefix
	if f := strings.Trim(folder, "/"); f != "" {
		prefix += f + "/"
	}

	var out []blobstore.Folder
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, blobstore.Error.Wrap(fmt.Errorf("list folders %q: %w", folder, mapErr(obj.Err)))
		}
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		p := strings.TrimPrefix(strings.TrimSuffix(obj.Key, "/"), objectPrefix)
		out = append(out, blobstore.Folder{Name: path.Base(p), Path: p})
	}
	return out, nil
}

// ListObjects returns up to pageSize objects after cursor. The cursor is the
// last object name of the previous page.
func (s *Store) ListObjects(ctx context.Context, prefix, cursor string, pageSize int) (blobstore.Page, error) {
	if pageSize <= 0 {
		pageSize = blobstore.DefaultPageSize
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var page blobstore.Page
	last := ""
	ch := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:     objectPrefix + prefix,
		Recursive:  true,
		StartAfter: cursor,
		MaxKeys:    pageSize,
	})
	for obj := range ch {
		if obj.Err != nil {
			return blobstore.Page{}, blobstore.Error.Wrap(fmt.Errorf("list %q: %w", prefix, mapErr(obj.Err)))
		}
		if len(page.Objects) == pageSize {
			page.NextCursor = last
			break
		}
		key, format := splitName(obj.Key)
		page.Objects = append(page.Objects, s.object(key, format, obj.Size, obj.LastModified))
		last = obj.Key
	}
	return page, nil
}

func objectName(key, format string) string {
	return objectPrefix + key + "." + format
}

// splitName separates an object name into key and extension.
func splitName(name string) (key, format string) {
	name = strings.TrimPrefix(name, objectPrefix)
	ext := path.Ext(name)
	if ext == "" || strings.Contains(ext, "/") {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), strings.TrimPrefix(ext, ".")
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden,
		resp.Code == "AccessDenied", resp.Code == "InvalidAccessKeyId", resp.Code == "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %s", blobstore.ErrUnauthorized, resp.Message)
	case isNotFound(err), resp.Code == "NoSuchBucket":
		return fmt.Errorf("%w: %s", blobstore.ErrNotFound, resp.Message)
	}
	return err
}

var _ blobstore.Store = (*Store)(nil)
