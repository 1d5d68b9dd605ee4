package catalog

import (
	"strings"
	"time"
)

// MaxScreenshots is how many screenshots a record keeps.
const MaxScreenshots = 6

// Record is one game copy in an owner's collection.
type Record struct {
	ID          string
	OwnerID     string
	Title       string
	Platform    string
	Publisher   string
	ReleaseYear int
	Cover       string   // locator, empty when unset
	BackCover   string   // locator, empty when unset
	Screenshots []string // locators, oldest first
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Owner is a collection owner.
type Owner struct {
	ID          string
	DisplayName string
	Plan        string
	CreatedAt   time.Time
}

// NaturalKey identifies a record by title and platform for merging.
func NaturalKey(title, platform string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "_" + strings.ToLower(strings.TrimSpace(platform))
}

// NaturalKey returns the record's merge key.
func (r Record) NaturalKey() string {
	return NaturalKey(r.Title, r.Platform)
}

// Locators returns every non-empty asset locator on the record.
func (r Record) Locators() []string {
	out := make([]string, 0, 2+len(r.Screenshots))
	if r.Cover != "" {
		out = append(out, r.Cover)
	}
	if r.BackCover != "" {
		out = append(out, r.BackCover)
	}
	for _, s := range r.Screenshots {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AppendScreenshots adds locators to the end of the screenshot list and keeps
// only the most recent MaxScreenshots. It returns the locators that fell off
// the front. Dropped blobs are not deleted here; the orphan scanner reclaims
// them.
func (r *Record) AppendScreenshots(locs ...string) (dropped []string) {
	all := append(append([]string{}, r.Screenshots...), locs...)
	if n := len(all) - MaxScreenshots; n > 0 {
		dropped = all[:n]
		all = all[n:]
	}
	r.Screenshots = all
	return dropped
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	r.Screenshots = append([]string(nil), r.Screenshots...)
	return r
}
