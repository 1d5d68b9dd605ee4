package local_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/blobstore/local"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

func newStore(t *testing.T) (*local.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return local.New(fs, "/blobs", "http://localhost:8080/media"), fs
}

func put(t *testing.T, s *local.Store, owner string, kind locator.AssetKind, name string, at int64) blobstore.Object {
	t.Helper()
	c := locator.New("gameshelf")
	c.Now = func() time.Time { return time.UnixMilli(at) }
	obj, err := s.Upload(context.Background(), blobstore.Upload{
		Target: c.UploadTarget(owner, kind, name),
		Body:   strings.NewReader("image-bytes"),
	})
	require.NoError(t, err)
	return obj
}

func TestUpload(t *testing.T) {
	s, fs := newStore(t)
	obj := put(t, s, "ana-1", locator.Cover, "Front.PNG", 1)

	assert.Equal(t, "gameshelf/ana-1/covers/front-1", obj.Key)
	assert.Equal(t, "png", obj.Format)
	assert.EqualValues(t, len("image-bytes"), obj.Size)

	key, ok := locator.ExtractKey(obj.Locator)
	require.True(t, ok, obj.Locator)
	assert.Equal(t, obj.Key, key)

	exists, err := afero.Exists(fs, "/blobs/gameshelf/ana-1/covers/front-1.png")
	require.NoError(t, err)
	assert.True(t, exists)

	// no temp files left behind
	entries, err := afero.ReadDir(fs, "/blobs/gameshelf/ana-1/covers")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	obj := put(t, s, "ana-1", locator.Cover, "front.jpg", 1)

	require.NoError(t, s.Delete(ctx, obj.Key))
	require.NoError(t, s.Delete(ctx, obj.Key), "deleting a missing blob is not an error")

	page, err := s.ListObjects(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Objects)
}

func TestDelete_ExactKeyOnly(t *testing.T) {
	s, fs := newStore(t)
	ctx := context.Background()
	dir := "/blobs/gameshelf/ana-1/screenshots/"
	for _, name := range []string{"front.jpg", "front.v2.jpg", "shot[1].jpg", "shot1.jpg"} {
		require.NoError(t, afero.WriteFile(fs, dir+name, []byte("x"), 0o644))
	}

	require.NoError(t, s.Delete(ctx, "gameshelf/ana-1/screenshots/front"))
	require.NoError(t, s.Delete(ctx, "gameshelf/ana-1/screenshots/shot[1]"))

	for name, want := range map[string]bool{
		"front.jpg":    false,
		"front.v2.jpg": true,
		"shot[1].jpg":  false,
		"shot1.jpg":    true,
	} {
		exists, err := afero.Exists(fs, dir+name)
		require.NoError(t, err)
		assert.Equal(t, want, exists, name)
	}
}

func TestListObjects_Pages(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		put(t, s, "ana-1", locator.Screenshot, "shot.jpg", i)
	}
	put(t, s, "bob-2", locator.Cover, "front.jpg", 9)

	var keys []string
	err := blobstore.Walk(ctx, s, "gameshelf/ana-1/", 2, func(o blobstore.Object) error {
		keys = append(keys, o.Key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gameshelf/ana-1/screenshots/shot-1",
		"gameshelf/ana-1/screenshots/shot-2",
		"gameshelf/ana-1/screenshots/shot-3",
		"gameshelf/ana-1/screenshots/shot-4",
		"gameshelf/ana-1/screenshots/shot-5",
	}, keys)
}

func TestDeletePrefix(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	put(t, s, "ana-1", locator.Cover, "a.jpg", 1)
	put(t, s, "ana-1", locator.BackCover, "b.jpg", 2)
	put(t, s, "bob-2", locator.Cover, "c.jpg", 3)

	n, err := s.DeletePrefix(ctx, "gameshelf/ana-1/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	empty, err := blobstore.IsEmpty(ctx, s, "gameshelf/bob-2/")
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestFolders(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	obj := put(t, s, "ana-1", locator.Cover, "a.jpg", 1)

	folders, err := s.ListFolders(ctx, "gameshelf")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, blobstore.Folder{Name: "ana-1", Path: "gameshelf/ana-1"}, folders[0])

	err = s.DeleteFolder(ctx, "gameshelf/ana-1/covers")
	assert.ErrorIs(t, err, blobstore.ErrFolderNotEmpty)

	require.NoError(t, s.Delete(ctx, obj.Key))
	require.NoError(t, s.DeleteFolder(ctx, "gameshelf/ana-1/covers"))

	folders, err = s.ListFolders(ctx, "gameshelf/ana-1")
	require.NoError(t, err)
	assert.Empty(t, folders)

	missing, err := s.ListFolders(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
