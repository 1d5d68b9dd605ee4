package s3

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

func TestSplitName(t *testing.T) {
	cases := []struct{ in, key, format string }{
		{"upload/gameshelf/ana-1/covers/front-1.jpg", "gameshelf/ana-1/covers/front-1", "jpg"},
		{"upload/gameshelf/legacy.png", "gameshelf/legacy", "png"},
		{"upload/gameshelf/noext", "gameshelf/noext", ""},
	}
	for _, c := range cases {
		key, format := splitName(c.in)
		assert.Equal(t, c.key, key, c.in)
		assert.Equal(t, c.format, format, c.in)
	}
}

func TestMapErr(t *testing.T) {
	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden, Message: "denied"}
	assert.ErrorIs(t, mapErr(denied), blobstore.ErrUnauthorized)

	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	assert.ErrorIs(t, mapErr(missing), blobstore.ErrNotFound)
	assert.True(t, isNotFound(missing))

	other := errors.New("connection reset")
	assert.Equal(t, other, mapErr(other))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(Options{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	s, err := New(Options{Endpoint: "localhost:9000", Bucket: "media"})
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media", s.publicURL)
}

func TestObject_LocatorAddressesStoredName(t *testing.T) {
	s, err := New(Options{Endpoint: "localhost:9000", Bucket: "media"})
	require.NoError(t, err)

	const key = "gameshelf/ana-1/covers/front-1"
	name := objectName(key, "jpg")

	uploaded := s.object(key, "jpg", 10, time.Time{})
	assert.Equal(t, "http://localhost:9000/media/"+name, uploaded.Locator)

	extracted, ok := locator.ExtractKey(uploaded.Locator)
	require.True(t, ok)
	assert.Equal(t, key, extracted)

	// the listing path rebuilds the same locator from the object name
	listedKey, format := splitName(name)
	listed := s.object(listedKey, format, 10, time.Unix(1700000000, 0))
	assert.Equal(t, uploaded.Locator, listed.Locator)
}
