package cdn_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/blobstore/cdn"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

func newClient(t *testing.T, h http.HandlerFunc) *cdn.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return cdn.New(cdn.Options{Cloud: "demo", APIKey: "key", APISecret: "secret", APIBase: srv.URL})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestUpload(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "gameshelf/ana-1/covers/front-1", r.FormValue("public_id"))
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "image-bytes", string(data))
		assert.Equal(t, "front-1.jpg", hdr.Filename)

		writeJSON(w, map[string]interface{}{
			"public_id":  "gameshelf/ana-1/covers/front-1",
			"version":    17,
			"format":     "jpg",
			"bytes":      11,
			"secure_url": "https://res.test/demo/image/upload/v17/gameshelf/ana-1/covers/front-1.jpg",
		})
	})

	obj, err := c.Upload(context.Background(), blobstore.Upload{
		Target: locator.Target{Folder: "gameshelf/ana-1/covers", ObjectKey: "front-1", Format: "jpg"},
		Body:   strings.NewReader("image-bytes"),
		Size:   11,
	})
	require.NoError(t, err)
	assert.Equal(t, "gameshelf/ana-1/covers/front-1", obj.Key)
	assert.Equal(t, int64(11), obj.Size)

	key, ok := locator.ExtractKey(obj.Locator)
	require.True(t, ok)
	assert.Equal(t, obj.Key, key)
}

func TestDelete_MissingIsOK(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"result": "not found"})
	})
	require.NoError(t, c.Delete(context.Background(), "gameshelf/x"))
}

func TestDelete_ServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{"error": map[string]string{"message": "boom"}})
	})
	err := c.Delete(context.Background(), "gameshelf/x")
	require.Error(t, err)
	assert.True(t, blobstore.Error.Has(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestListObjects_Walk(t *testing.T) {
	pages := map[string]map[string]interface{}{
		"": {
			"resources":   []map[string]interface{}{{"public_id": "gameshelf/a", "format": "jpg"}},
			"next_cursor": "c1",
		},
		"c1": {
			"resources": []map[string]interface{}{{"public_id": "gameshelf/b", "format": "png"}},
		},
	}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/resources/image/upload", r.URL.Path)
		assert.Equal(t, "gameshelf/", r.URL.Query().Get("prefix"))
		assert.Equal(t, "1", r.URL.Query().Get("max_results"))
		writeJSON(w, pages[r.URL.Query().Get("next_cursor")])
	})

	var keys []string
	err := blobstore.Walk(context.Background(), c, "gameshelf/", 1, func(o blobstore.Object) error {
		keys = append(keys, o.Key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"gameshelf/a", "gameshelf/b"}, keys)
}

func TestListObjects_Unauthorized(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.ListObjects(context.Background(), "", "", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, blobstore.ErrUnauthorized))
}

func TestDeletePrefix_FollowsPartial(t *testing.T) {
	calls := 0
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		calls++
		if r.URL.Query().Get("next_cursor") == "" {
			writeJSON(w, map[string]interface{}{
				"deleted":     map[string]string{"p/a": "deleted", "p/b": "deleted"},
				"partial":     true,
				"next_cursor": "more",
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"deleted": map[string]string{"p/c": "deleted", "p/d": "not_found"},
		})
	})

	n, err := c.DeletePrefix(context.Background(), "p/")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, calls)
}

func TestFolders(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1_1/demo/folders/gameshelf":
			writeJSON(w, map[string]interface{}{
				"folders": []map[string]string{{"name": "ana-1", "path": "gameshelf/ana-1"}},
			})
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/v1_1/demo/folders/gameshelf/full":
			w.WriteHeader(http.StatusConflict)
		default:
			writeJSON(w, map[string]interface{}{"deleted": []string{"gameshelf/empty"}})
		}
	})
	ctx := context.Background()

	folders, err := c.ListFolders(ctx, "gameshelf")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "gameshelf/ana-1", folders[0].Path)

	missing, err := c.ListFolders(ctx, "gameshelf/nope")
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, c.DeleteFolder(ctx, "gameshelf/empty"))
	err = c.DeleteFolder(ctx, "gameshelf/full")
	assert.True(t, errors.Is(err, blobstore.ErrFolderNotEmpty))
}
