package catalog_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

var sampleYAML = []byte(`
- title: "Chrono Trigger"
  platform: SNES
  publisher: Square
  release_year: 1995
  cover: https://res.test/x/image/upload/v1/gameshelf/ana-1/covers/ct-1.jpg
  screenshots:
    - https://res.test/x/image/upload/v1/gameshelf/ana-1/screenshots/s-1.jpg

- title: "Metroid Prime"
  platform: GameCube
`)

// --- Parse / Marshal round-trip ---

func TestParse_ValidYAML(t *testing.T) {
	entries, err := catalog.Parse(sampleYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Publisher != "Square" {
		t.Errorf("entries[0].Publisher = %q, want %q", entries[0].Publisher, "Square")
	}
	if len(entries[0].Screenshots) != 1 {
		t.Errorf("entries[0].Screenshots = %v", entries[0].Screenshots)
	}
	if entries[1].Cover != "" {
		t.Errorf("absent cover should be empty, got %q", entries[1].Cover)
	}
}

func TestParse_JSON(t *testing.T) {
	entries, err := catalog.Parse([]byte(`[{"title":"Halo","platform":"Xbox","release_year":2001}]`))
	if err != nil {
		t.Fatalf("Parse JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].ReleaseYear != 2001 {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestParse_WrappedRecords(t *testing.T) {
	entries, err := catalog.Parse([]byte("records:\n  - title: Doom\n    platform: PC\n"))
	if err != nil {
		t.Fatalf("Parse wrapped: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Doom" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestParse_Empty(t *testing.T) {
	entries, err := catalog.Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse empty: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestParse_EmptyList(t *testing.T) {
	entries, err := catalog.Parse([]byte("[]\n"))
	if err != nil {
		t.Fatalf("Parse []: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestParse_Scalar(t *testing.T) {
	if _, err := catalog.Parse([]byte("just a string\n")); err == nil {
		t.Error("expected error for scalar document")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := catalog.Parse([]byte(":: bad yaml ["))
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	entries, err := catalog.Parse(sampleYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := catalog.Marshal(entries)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := catalog.Parse(data)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if len(again) != len(entries) {
		t.Fatalf("round-trip length: got %d, want %d", len(again), len(entries))
	}
	for i := range entries {
		if entries[i].NaturalKey() != again[i].NaturalKey() {
			t.Errorf("[%d] key mismatch: %q vs %q", i, entries[i].NaturalKey(), again[i].NaturalKey())
		}
	}
}

// --- Natural key ---

func TestNaturalKey(t *testing.T) {
	a := catalog.NaturalKey("  Chrono Trigger ", "snes")
	b := catalog.NaturalKey("chrono trigger", " SNES")
	if a != b || a != "chrono trigger_snes" {
		t.Errorf("NaturalKey mismatch: %q vs %q", a, b)
	}
}

func TestEntry_Complete(t *testing.T) {
	cases := []struct {
		e    catalog.Entry
		want bool
	}{
		{catalog.Entry{Title: "Doom", Platform: "PC"}, true},
		{catalog.Entry{Title: "Doom"}, false},
		{catalog.Entry{Platform: "PC"}, false},
		{catalog.Entry{Title: "  ", Platform: "PC"}, false},
	}
	for _, c := range cases {
		if got := c.e.Complete(); got != c.want {
			t.Errorf("Complete(%+v) = %v, want %v", c.e, got, c.want)
		}
	}
}

func TestEntry_ApplyKeepsIdentity(t *testing.T) {
	r := catalog.Record{ID: "r1", OwnerID: "o1", Version: 3, Title: "old", Cover: "c"}
	catalog.Entry{Title: "New", Platform: "PC"}.Apply(&r)
	if r.ID != "r1" || r.OwnerID != "o1" || r.Version != 3 {
		t.Errorf("identity changed: %+v", r)
	}
	if r.Title != "New" || r.Cover != "" {
		t.Errorf("fields not overwritten: %+v", r)
	}
}

// --- Screenshots ---

func TestAppendScreenshots_KeepsMostRecent(t *testing.T) {
	r := catalog.Record{}
	for i := 1; i <= 4; i++ {
		r.Screenshots = append(r.Screenshots, fmt.Sprintf("s%d", i))
	}
	dropped := r.AppendScreenshots("s5", "s6", "s7", "s8")
	if len(r.Screenshots) != catalog.MaxScreenshots {
		t.Fatalf("len = %d, want %d", len(r.Screenshots), catalog.MaxScreenshots)
	}
	if got := strings.Join(r.Screenshots, ","); got != "s3,s4,s5,s6,s7,s8" {
		t.Errorf("Screenshots = %s", got)
	}
	if got := strings.Join(dropped, ","); got != "s1,s2" {
		t.Errorf("dropped = %s", got)
	}
}

func TestAppendScreenshots_NoDrop(t *testing.T) {
	r := catalog.Record{Screenshots: []string{"a"}}
	if dropped := r.AppendScreenshots("b"); len(dropped) != 0 {
		t.Errorf("dropped = %v, want none", dropped)
	}
}

func TestLocators(t *testing.T) {
	r := catalog.Record{Cover: "c", Screenshots: []string{"s1", "", "s2"}}
	if got := strings.Join(r.Locators(), ","); got != "c,s1,s2" {
		t.Errorf("Locators = %s", got)
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	ok := catalog.Record{OwnerID: "o", Title: "Doom", Platform: "PC", ReleaseYear: 1993}
	if errs := ok.Validate(); errs != nil {
		t.Errorf("Validate() = %v, want nil", errs)
	}

	bad := catalog.Record{Title: strings.Repeat("x", 201), ReleaseYear: 1800}
	errs := bad.Validate()
	want := []string{"owner", "platform", "release_year", "title"}
	if got := errs.Fields(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
	if !strings.Contains(errs.String(), "platform: required") {
		t.Errorf("String() = %q", errs.String())
	}
}

// --- Filter ---

func sampleRecords() []catalog.Record {
	return []catalog.Record{
		{ID: "ct", Title: "Chrono Trigger", Platform: "SNES", Publisher: "Square"},
		{ID: "mp", Title: "Metroid Prime", Platform: "GameCube", Publisher: "Nintendo"},
		{ID: "sm", Title: "Super Metroid", Platform: "snes", Publisher: "Nintendo"},
	}
}

func TestFilter_ByPlatformCaseInsensitive(t *testing.T) {
	result := catalog.Filter{Platform: "SNES"}.Apply(sampleRecords())
	if got := ids(result); strings.Join(got, ",") != "ct,sm" {
		t.Errorf("platform filter: got %v", got)
	}
}

func TestFilter_BySearch(t *testing.T) {
	result := catalog.Filter{Search: "metroid"}.Apply(sampleRecords())
	if len(result) != 2 {
		t.Errorf("title search: got %v", ids(result))
	}
	result = catalog.Filter{Search: "square"}.Apply(sampleRecords())
	if len(result) != 1 || result[0].ID != "ct" {
		t.Errorf("publisher search: got %v", ids(result))
	}
}

func TestFilter_Combined(t *testing.T) {
	result := catalog.Filter{Platform: "snes", Search: "metroid"}.Apply(sampleRecords())
	if len(result) != 1 || result[0].ID != "sm" {
		t.Errorf("combined filter: got %v", ids(result))
	}
}

func TestFilter_Empty(t *testing.T) {
	if result := (catalog.Filter{}).Apply(sampleRecords()); len(result) != 3 {
		t.Errorf("empty filter should return all records, got %d", len(result))
	}
}

func ids(records []catalog.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
