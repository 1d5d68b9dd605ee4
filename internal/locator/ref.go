package locator

import "strings"

// Shape tags the historical layout a locator was written with.
type Shape int

const (
	// Unresolvable locators carry no extractable key.
	Unresolvable Shape = iota
	// LegacyFlat keys predate owner folders (<root>/<file> or a bare name).
	LegacyFlat
	// OwnerScoped keys follow <root>/<ownerFolder>/<kindFolder>/<file>.
	OwnerScoped
)

func (s Shape) String() string {
	switch s {
	case LegacyFlat:
		return "legacy-flat"
	case OwnerScoped:
		return "owner-scoped"
	default:
		return "unresolvable"
	}
}

// Ref is a decoded locator. Only Locator and Shape are set for
// Unresolvable refs; OwnerFolder, Kind and File are set for OwnerScoped ones.
type Ref struct {
	Shape       Shape
	Locator     string
	Key         string
	OwnerFolder string
	Kind        AssetKind
	File        string
}

// Resolved reports whether the ref has a usable storage key.
func (r Ref) Resolved() bool {
	return r.Shape != Unresolvable
}

// Decode classifies a stored locator against the codec's root.
func (c *Codec) Decode(loc string) Ref {
	key, ok := ExtractKey(loc)
	if !ok {
		return Ref{Shape: Unresolvable, Locator: loc}
	}

	ref := Ref{Shape: LegacyFlat, Locator: loc, Key: key}
	parts := strings.Split(key, "/")
	if len(parts) == 4 && parts[0] == c.Root {
		if kind, known := KindFromFolder(parts[2]); known {
			ref.Shape = OwnerScoped
			ref.OwnerFolder = parts[1]
			ref.Kind = kind
			ref.File = parts[3]
		}
	}
	return ref
}
