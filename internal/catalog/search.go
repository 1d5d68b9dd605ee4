package catalog

import "strings"

// Filter applies all non-empty criteria and returns matching records.
type Filter struct {
	Platform string
	Search   string // matches title or publisher
}

// Apply returns the subset of records matching all non-empty filter fields.
func (f Filter) Apply(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if f.Platform != "" && !strings.EqualFold(strings.TrimSpace(r.Platform), strings.TrimSpace(f.Platform)) {
			continue
		}
		if f.Search != "" && !matchesSearch(r, f.Search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r Record, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Publisher), q)
}
