package locator_test

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// --- Slugify ---

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Mario Fan", "mario-fan"},
		{"  Lots   of   space ", "lots-of-space"},
		{"Pokémon Trainer!", "pokemon-trainer"},
		{"a - b", "a---b"},
		{"snake_case_name", "snake_case_name"},
		{"!!!", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := locator.Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := locator.Slugify(strings.Repeat("abc ", 40))
	if len(got) != 50 {
		t.Errorf("len(Slugify) = %d, want 50", len(got))
	}
}

// --- OwnerFolder ---

func TestOwnerFolder_Deterministic(t *testing.T) {
	a := locator.OwnerFolder("Retro Collector", "42")
	b := locator.OwnerFolder("Retro Collector", "42")
	if a != b {
		t.Fatalf("OwnerFolder not deterministic: %q vs %q", a, b)
	}
	if a != "retro-collector-42" {
		t.Errorf("OwnerFolder = %q, want %q", a, "retro-collector-42")
	}
}

func TestOwnerFolder_EmptyName(t *testing.T) {
	if got := locator.OwnerFolder("???", "7"); got != "owner-7" {
		t.Errorf("OwnerFolder = %q, want %q", got, "owner-7")
	}
}

func TestOwnerFolder_RenameDoesNotTouchStoredLocators(t *testing.T) {
	c := fixedCodec()
	before := c.UploadTarget(locator.OwnerFolder("Old Name", "9"), locator.Cover, "box.jpg")
	stored := locator.Build("https://cdn.test/demo/image", 1, before.Key(), before.Format)

	_ = locator.OwnerFolder("New Name", "9")

	key, ok := locator.ExtractKey(stored)
	if !ok || key != before.Key() {
		t.Errorf("stored locator resolves to %q (ok=%v), want %q", key, ok, before.Key())
	}
}

// --- UploadTarget ---

func fixedCodec() *locator.Codec {
	c := locator.New("gameshelf")
	c.Now = func() time.Time { return time.UnixMilli(1700000000123) }
	return c
}

func TestUploadTarget(t *testing.T) {
	tgt := fixedCodec().UploadTarget("ana-1", locator.BackCover, "My Back Cover.PNG")
	if tgt.Folder != "gameshelf/ana-1/backCovers" {
		t.Errorf("Folder = %q", tgt.Folder)
	}
	if tgt.ObjectKey != "my-back-cover-1700000000123" {
		t.Errorf("ObjectKey = %q", tgt.ObjectKey)
	}
	if tgt.Format != "png" {
		t.Errorf("Format = %q, want png", tgt.Format)
	}
	if tgt.Key() != "gameshelf/ana-1/backCovers/my-back-cover-1700000000123" {
		t.Errorf("Key = %q", tgt.Key())
	}
}

func TestUploadTarget_StripsDirectories(t *testing.T) {
	tgt := fixedCodec().UploadTarget("o-1", locator.Screenshot, `C:\shots\level 1.jpeg`)
	if tgt.ObjectKey != "level-1-1700000000123" {
		t.Errorf("ObjectKey = %q", tgt.ObjectKey)
	}
}

func TestUploadTarget_SameMillisecondIsUnique(t *testing.T) {
	c := fixedCodec()
	a := c.UploadTarget("o-1", locator.Screenshot, "shot.jpg")
	b := c.UploadTarget("o-1", locator.Screenshot, "shot.jpg")
	if a.Key() == b.Key() {
		t.Fatalf("duplicate key %q", a.Key())
	}
	if b.ObjectKey != "shot-1700000000124" {
		t.Errorf("ObjectKey = %q", b.ObjectKey)
	}
}

// --- ExtractKey ---

func TestExtractKey_RoundTrip(t *testing.T) {
	tgt := fixedCodec().UploadTarget("ana-1", locator.Cover, "front.jpg")
	for _, version := range []int64{0, 1699999999} {
		loc := locator.Build("https://cdn.test/demo/image", version, tgt.Key(), tgt.Format)
		key, ok := locator.ExtractKey(loc)
		if !ok {
			t.Fatalf("ExtractKey(%q) failed", loc)
		}
		if key != tgt.Key() {
			t.Errorf("ExtractKey(%q) = %q, want %q", loc, key, tgt.Key())
		}
	}
}

func TestExtractKey_IgnoresQueryAndVersion(t *testing.T) {
	a, _ := locator.ExtractKey("https://cdn.test/x/image/upload/v1/gameshelf/a/covers/f-1.jpg")
	b, _ := locator.ExtractKey("https://cdn.test/x/image/upload/v2/gameshelf/a/covers/f-1.jpg?_a=ATO")
	if a == "" || a != b {
		t.Errorf("keys differ across versions: %q vs %q", a, b)
	}
}

func TestExtractKey_Malformed(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"not a url at all",
		"https://cdn.test/x/image/fetch/f.jpg",
		"https://cdn.test/x/image/upload/",
		"https://cdn.test/x/image/upload/v12/noext",
		"https://cdn.test/x/image/upload/dir/.jpg",
		"https://cdn.test/x/image/upload/file.",
		"https://cdn.test/x/image/upload/a//b.jpg",
		"%zz",
	}
	for _, in := range bad {
		if key, ok := locator.ExtractKey(in); ok {
			t.Errorf("ExtractKey(%q) = %q, want failure", in, key)
		}
	}
}

// --- Decode ---

func TestDecode_Shapes(t *testing.T) {
	c := fixedCodec()
	cases := []struct {
		loc   string
		shape locator.Shape
	}{
		{"https://cdn.test/x/image/upload/v1/gameshelf/ana-1/covers/f-1.jpg", locator.OwnerScoped},
		{"https://cdn.test/x/image/upload/v1/gameshelf/f-1.jpg", locator.LegacyFlat},
		{"https://cdn.test/x/image/upload/f-1.jpg", locator.LegacyFlat},
		{"https://cdn.test/x/image/upload/v1/gameshelf/ana-1/manuals/f-1.jpg", locator.LegacyFlat},
		{"garbage", locator.Unresolvable},
	}
	for _, tc := range cases {
		ref := c.Decode(tc.loc)
		if ref.Shape != tc.shape {
			t.Errorf("Decode(%q).Shape = %v, want %v", tc.loc, ref.Shape, tc.shape)
		}
	}

	ref := c.Decode(cases[0].loc)
	if ref.OwnerFolder != "ana-1" || ref.Kind != locator.Cover || ref.File != "f-1" {
		t.Errorf("unexpected owner-scoped ref: %+v", ref)
	}
	if ref.Resolved() != true {
		t.Error("owner-scoped ref should be resolved")
	}
}
