package catalog

import "strings"

// Entry is one record in an import or export file. Fields are untrusted;
// entries without a title or platform are skipped by the importer.
type Entry struct {
	Title       string   `yaml:"title" json:"title"`
	Platform    string   `yaml:"platform" json:"platform"`
	Publisher   string   `yaml:"publisher,omitempty" json:"publisher,omitempty"`
	ReleaseYear int      `yaml:"release_year,omitempty" json:"release_year,omitempty"`
	Cover       string   `yaml:"cover,omitempty" json:"cover,omitempty"`
	BackCover   string   `yaml:"back_cover,omitempty" json:"back_cover,omitempty"`
	Screenshots []string `yaml:"screenshots,omitempty" json:"screenshots,omitempty"`
}

// Complete reports whether the entry carries both halves of the natural key.
func (e Entry) Complete() bool {
	return strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.Platform) != ""
}

// NaturalKey returns the entry's merge key.
func (e Entry) NaturalKey() string {
	return NaturalKey(e.Title, e.Platform)
}

// Apply overwrites every payload field on r. Identity, owner and version
// are left alone. Screenshots beyond MaxScreenshots keep the most recent.
func (e Entry) Apply(r *Record) {
	r.Title = e.Title
	r.Platform = e.Platform
	r.Publisher = e.Publisher
	r.ReleaseYear = e.ReleaseYear
	r.Cover = e.Cover
	r.BackCover = e.BackCover
	r.Screenshots = nil
	r.AppendScreenshots(e.Screenshots...)
}

// EntryFromRecord converts a stored record into its export form.
func EntryFromRecord(r Record) Entry {
	return Entry{
		Title:       r.Title,
		Platform:    r.Platform,
		Publisher:   r.Publisher,
		ReleaseYear: r.ReleaseYear,
		Cover:       r.Cover,
		BackCover:   r.BackCover,
		Screenshots: append([]string(nil), r.Screenshots...),
	}
}
