package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen     = 200
	maxPlatformLen  = 100
	maxPublisherLen = 100
	firstGameYear   = 1950
)

// FieldErrors maps a field name to a human-readable message.
type FieldErrors map[string]string

// Fields returns the failing field names in sorted order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f FieldErrors) String() string {
	var parts []string
	for _, k := range f.Fields() {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// Validate checks field-level rules. It returns nil when the record is valid.
func (r Record) Validate() FieldErrors {
	errs := FieldErrors{}

	title := strings.TrimSpace(r.Title)
	switch {
	case title == "":
		errs["title"] = "required"
	case utf8.RuneCountInString(title) > maxTitleLen:
		errs["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLen)
	}

	platform := strings.TrimSpace(r.Platform)
	switch {
	case platform == "":
		errs["platform"] = "required"
	case utf8.RuneCountInString(platform) > maxPlatformLen:
		errs["platform"] = fmt.Sprintf("must be at most %d characters", maxPlatformLen)
	}

	if utf8.RuneCountInString(r.Publisher) > maxPublisherLen {
		errs["publisher"] = fmt.Sprintf("must be at most %d characters", maxPublisherLen)
	}

	if r.ReleaseYear != 0 {
		latest := time.Now().Year() + 2
		if r.ReleaseYear < firstGameYear || r.ReleaseYear > latest {
			errs["release_year"] = fmt.Sprintf("must be between %d and %d", firstGameYear, latest)
		}
	}

	if len(r.Screenshots) > MaxScreenshots {
		errs["screenshots"] = fmt.Sprintf("at most %d allowed", MaxScreenshots)
	}

	if r.OwnerID == "" {
		errs["owner"] = "required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
