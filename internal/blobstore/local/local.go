// Package local implements blobstore.Store on a filesystem. It backs
// development setups and tests; production deployments use cdn or s3.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

const pendingPrefix = ".pending-"

// Store keeps blobs as <root>/<key>.<format> files.
type Store struct {
	fs        afero.Fs
	root      string
	publicURL string
}

// New creates a Store rooted at root on fs. publicURL is the base that
// locators are built from.
func New(fs afero.Fs, root, publicURL string) *Store {
	return &Store{fs: fs, root: filepath.Clean(root), publicURL: publicURL}
}

// NewOS creates a Store on the host filesystem.
func NewOS(root, publicURL string) *Store {
	return New(afero.NewOsFs(), root, publicURL)
}

func (s *Store) abs(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Upload writes the body to a temp file and renames it into place.
func (s *Store) Upload(ctx context.Context, up blobstore.Upload) (blobstore.Object, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(err)
	}
	key := up.Target.Key()
	dest := s.abs(key) + "." + up.Target.Format

	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("create folder: %w", err))
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(dest), pendingPrefix)
	if err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("create temp file: %w", err))
	}
	n, err := io.Copy(tmp, up.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(tmp.Name())
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("writing %q: %w", key, err))
	}
	if err := s.fs.Rename(tmp.Name(), dest); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("rename %q: %w", key, err))
	}

	fi, err := s.fs.Stat(dest)
	if err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(err)
	}
	return s.object(key, up.Target.Format, n, fi), nil
}

func (s *Store) object(key, format string, size int64, fi os.FileInfo) blobstore.Object {
	return blobstore.Object{
		Key:       key,
		Format:    format,
		Locator:   locator.Build(s.publicURL, fi.ModTime().Unix(), key, format),
		Size:      size,
		CreatedAt: fi.ModTime(),
	}
}

// Delete removes the blob stored under key, whatever its format. Only files
// whose name minus the extension is exactly the key's base are removed.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return blobstore.Error.Wrap(err)
	}
	full := s.abs(key)
	dir, base := filepath.Dir(full), filepath.Base(full)
	entries, err := afero.ReadDir(s.fs, dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return blobstore.Error.Wrap(err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, pendingPrefix) {
			continue
		}
		if strings.TrimSuffix(name, path.Ext(name)) != base {
			continue
		}
		if err := s.fs.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return blobstore.Error.Wrap(fmt.Errorf("delete %q: %w", key, err))
		}
	}
	return nil
}

// DeletePrefix removes every blob whose key starts with prefix.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	objs, err := s.scan(prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, o := range objs {
		if err := ctx.Err(); err != nil {
			return deleted, blobstore.Error.Wrap(err)
		}
		if err := s.fs.Remove(s.abs(o.key) + "." + o.format); err != nil && !os.IsNotExist(err) {
			return deleted, blobstore.Error.Wrap(fmt.Errorf("delete %q: %w", o.key, err))
		}
		deleted++
	}
	return deleted, nil
}

// DeleteFolder removes an empty directory.
func (s *Store) DeleteFolder(ctx context.Context, folder string) error {
	dir := s.abs(folder)
	entries, err := afero.ReadDir(s.fs, dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return blobstore.Error.Wrap(err)
	}
	if len(entries) > 0 {
		return blobstore.Error.Wrap(fmt.Errorf("delete folder %q: %w", folder, blobstore.ErrFolderNotEmpty))
	}
	if err := s.fs.Remove(dir); err != nil && !os.IsNotExist(err) {
		return blobstore.Error.Wrap(err)
	}
	return nil
}

// ListFolders returns the sub-directories of folder.
func (s *Store) ListFolders(ctx context.Context, folder string) ([]blobstore.Folder, error) {
	entries, err := afero.ReadDir(s.fs, s.abs(folder))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, blobstore.Error.Wrap(err)
	}
	var out []blobstore.Folder
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, blobstore.Folder{Name: e.Name(), Path: path.Join(folder, e.Name())})
	}
	return out, nil
}

// ListObjects returns keys after cursor in lexical order.
func (s *Store) ListObjects(ctx context.Context, prefix, cursor string, pageSize int) (blobstore.Page, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.Page{}, blobstore.Error.Wrap(err)
	}
	if pageSize <= 0 {
		pageSize = blobstore.DefaultPageSize
	}
	objs, err := s.scan(prefix)
	if err != nil {
		return blobstore.Page{}, err
	}

	start := sort.Search(len(objs), func(i int) bool { return objs[i].key > cursor })
	end := start + pageSize
	if end > len(objs) {
		end = len(objs)
	}

	var page blobstore.Page
	for _, o := range objs[start:end] {
		page.Objects = append(page.Objects, s.object(o.key, o.format, o.info.Size(), o.info))
	}
	if end < len(objs) {
		page.NextCursor = objs[end-1].key
	}
	return page, nil
}

type entry struct {
	key    string
	format string
	info   os.FileInfo
}

// scan walks the root and returns the blobs under prefix sorted by key.
func (s *Store) scan(prefix string) ([]entry, error) {
	var out []entry
	err := afero.Walk(s.fs, s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), pendingPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ext := path.Ext(rel)
		key := strings.TrimSuffix(rel, ext)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		out = append(out, entry{key: key, format: strings.TrimPrefix(ext, "."), info: info})
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, blobstore.Error.Wrap(fmt.Errorf("walking %q: %w", s.root, err))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, nil
}

var _ blobstore.Store = (*Store)(nil)
