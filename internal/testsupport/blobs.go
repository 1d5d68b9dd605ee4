// Package testsupport provides fakes and fixtures shared by package tests.
package testsupport

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// PublicBase is the locator base used by MemBlobs.
const PublicBase = "https://res.test/demo/image"

// MemBlobs is an in-memory blobstore.Store that records every call.
type MemBlobs struct {
	mu      sync.Mutex
	objects map[string]blobstore.Object
	dirs    map[string]bool

	// UploadErr, when set, is consulted before the n-th upload (1-based).
	UploadErr func(n int, up blobstore.Upload) error
	// DeleteErr, when set, is consulted before every delete.
	DeleteErr func(key string) error
	// DeleteFolderErr, when set, is consulted before every folder delete.
	DeleteFolderErr func(path string) error
	// ListErr fails every listing call when set.
	ListErr error

	uploads     int
	Deleted     []string
	DeletedDirs []string
	Prefixes    []string
}

// NewMemBlobs creates an empty store.
func NewMemBlobs() *MemBlobs {
	return &MemBlobs{objects: map[string]blobstore.Object{}, dirs: map[string]bool{}}
}

// Put seeds an object under key with format jpg and returns its locator.
func (m *MemBlobs) Put(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := m.object(key, "jpg")
	m.objects[key] = obj
	m.addDirs(path.Dir(key))
	return obj.Locator
}

// AddFolder creates an empty folder and its parents.
func (m *MemBlobs) AddFolder(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirs(p)
}

// Keys returns the stored keys in order.
func (m *MemBlobs) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is stored.
func (m *MemBlobs) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Uploads returns how many uploads succeeded.
func (m *MemBlobs) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// DeletedKeys returns a sorted copy of the deleted keys.
func (m *MemBlobs) DeletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.Deleted...)
	sort.Strings(out)
	return out
}

func (m *MemBlobs) object(key, format string) blobstore.Object {
	return blobstore.Object{
		Key:       key,
		Format:    format,
		Locator:   locator.Build(PublicBase, 1, key, format),
		CreatedAt: time.Unix(1, 0),
	}
}

func (m *MemBlobs) addDirs(p string) {
	for p != "." && p != "/" && p != "" {
		m.dirs[p] = true
		p = path.Dir(p)
	}
}

// Upload stores the body's size under the target key.
func (m *MemBlobs) Upload(ctx context.Context, up blobstore.Upload) (blobstore.Object, error) {
	m.mu.Lock()
	n := m.uploads + 1
	hook := m.UploadErr
	m.mu.Unlock()

	if hook != nil {
		if err := hook(n, up); err != nil {
			return blobstore.Object{}, blobstore.Error.Wrap(err)
		}
	}
	size, _ := io.Copy(io.Discard, up.Body)

	m.mu.Lock()
	defer m.mu.Unlock()
	key := up.Target.Key()
	if _, dup := m.objects[key]; dup {
		return blobstore.Object{}, blobstore.Error.New("key %q already exists", key)
	}
	obj := m.object(key, up.Target.Format)
	obj.Size = size
	m.objects[key] = obj
	m.addDirs(up.Target.Folder)
	m.uploads++
	return obj, nil
}

// Delete removes key; a missing key is not an error.
func (m *MemBlobs) Delete(ctx context.Context, key string) error {
	if m.DeleteErr != nil {
		if err := m.DeleteErr(key); err != nil {
			return blobstore.Error.Wrap(err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// DeletePrefix removes every key under prefix.
func (m *MemBlobs) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prefixes = append(m.Prefixes, prefix)
	n := 0
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
			m.Deleted = append(m.Deleted, k)
			n++
		}
	}
	return n, nil
}

// DeleteFolder removes an empty folder.
func (m *MemBlobs) DeleteFolder(ctx context.Context, p string) error {
	if m.DeleteFolderErr != nil {
		if err := m.DeleteFolderErr(p); err != nil {
			return blobstore.Error.Wrap(err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if strings.HasPrefix(k, p+"/") {
			return blobstore.Error.Wrap(fmt.Errorf("%s: %w", p, blobstore.ErrFolderNotEmpty))
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, p+"/") {
			return blobstore.Error.Wrap(fmt.Errorf("%s: %w", p, blobstore.ErrFolderNotEmpty))
		}
	}
	delete(m.dirs, p)
	m.DeletedDirs = append(m.DeletedDirs, p)
	return nil
}

// ListFolders returns the immediate sub-folders of p, sorted.
func (m *MemBlobs) ListFolders(ctx context.Context, p string) ([]blobstore.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, blobstore.Error.Wrap(m.ListErr)
	}
	var out []blobstore.Folder
	for d := range m.dirs {
		parent := path.Dir(d)
		if parent == "." {
			parent = ""
		}
		if parent == strings.Trim(p, "/") {
			out = append(out, blobstore.Folder{Name: path.Base(d), Path: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ListObjects pages through keys under prefix in lexical order.
func (m *MemBlobs) ListObjects(ctx context.Context, prefix, cursor string, pageSize int) (blobstore.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return blobstore.Page{}, blobstore.Error.Wrap(m.ListErr)
	}
	if pageSize <= 0 {
		pageSize = blobstore.DefaultPageSize
	}
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > cursor {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var page blobstore.Page
	for i, k := range keys {
		if i == pageSize {
			page.NextCursor = keys[i-1]
			break
		}
		page.Objects = append(page.Objects, m.objects[k])
	}
	return page, nil
}

var _ blobstore.Store = (*MemBlobs)(nil)
