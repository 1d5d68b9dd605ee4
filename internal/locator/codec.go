// Package locator maps between owners, asset kinds and filenames and the
// storage keys and fully-qualified locators used by the media store.
//
// A storage key has the shape <root>/<ownerFolder>/<kindFolder>/<file>, with
// no file extension. A locator is the public URL of a stored asset, of the
// form <base>/upload/[v<version>/]<key>.<ext>. Keys are never recomputed from
// a record: the inverse mapping always parses the stored locator.
package locator

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync/atomic"
	"time"
)

const uploadMarker = "/upload/"

// Codec derives storage targets under a fixed root folder. Timestamp
// suffixes are strictly increasing per Codec, so two uploads in the same
// millisecond never share a key.
type Codec struct {
	Root string
	Now  func() time.Time

	last atomic.Int64
}

// New creates a Codec rooted at root.
func New(root string) *Codec {
	return &Codec{Root: strings.Trim(root, "/"), Now: time.Now}
}

// Target is where an upload will be written.
type Target struct {
	Folder    string    // <root>/<ownerFolder>/<kindFolder>
	ObjectKey string    // slug of the original name plus a timestamp suffix
	Format    string    // lower-case file extension without the dot
	Kind      AssetKind // slot the asset fills
}

// Key returns the full storage key (folder and object key).
func (t Target) Key() string {
	return t.Folder + "/" + t.ObjectKey
}

// OwnerFolder derives the per-owner folder name. The owner id suffix keeps the
// folder tied to the owner even when the display name is edited later; only
// uploads made after the edit land in a differently named folder.
func OwnerFolder(displayName, ownerID string) string {
	slug := Slugify(displayName)
	if slug == "" {
		slug = "owner"
	}
	return slug + "-" + ownerID
}

// UploadTarget derives the folder and object key for a new upload.
func (c *Codec) UploadTarget(ownerFolder string, kind AssetKind, filename string) Target {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	slug := Slugify(stem)
	if slug == "" {
		slug = "asset"
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	format := strings.ToLower(strings.TrimPrefix(ext, "."))
	if format == "" {
		format = "jpg"
	}

	return Target{
		Folder:    c.Root + "/" + ownerFolder + "/" + kind.Folder(),
		ObjectKey: fmt.Sprintf("%s-%d", slug, c.stamp(now())),
		Format:    format,
		Kind:      kind,
	}
}

func (c *Codec) stamp(t time.Time) int64 {
	ts := t.UnixMilli()
	for {
		last := c.last.Load()
		if ts <= last {
			ts = last + 1
		}
		if c.last.CompareAndSwap(last, ts) {
			return ts
		}
	}
}

// Build assembles a locator from a public base URL, an optional version and
// the storage key. A zero version omits the version segment.
func Build(base string, version int64, key, format string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString(uploadMarker)
	if version > 0 {
		fmt.Fprintf(&b, "v%d/", version)
	}
	b.WriteString(key)
	b.WriteByte('.')
	b.WriteString(format)
	return b.String()
}

// ExtractKey returns the storage key embedded in a locator, including its
// folder segments. Query strings, fragments and the version segment are
// ignored. It reports false for anything that does not conform.
func ExtractKey(loc string) (string, bool) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", false
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "", false
	}

	p := u.Path
	i := strings.Index(p, uploadMarker)
	if i < 0 {
		return "", false
	}
	rest := p[i+len(uploadMarker):]
	if seg, tail, ok := strings.Cut(rest, "/"); ok && isVersionSegment(seg) {
		rest = tail
	}

	dot := strings.LastIndexByte(rest, '.')
	slash := strings.LastIndexByte(rest, '/')
	if dot <= slash+1 || dot == len(rest)-1 {
		return "", false
	}
	if !isAlnum(rest[dot+1:]) {
		return "", false
	}

	key := rest[:dot]
	if strings.HasPrefix(key, "/") || strings.Contains(key, "//") {
		return "", false
	}
	return key, true
}

func isVersionSegment(seg string) bool {
	return len(seg) > 1 && seg[0] == 'v' && isDigits(seg[1:])
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return s != ""
}
