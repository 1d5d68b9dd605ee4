package locator

// AssetKind identifies which of a record's image slots an asset fills.
type AssetKind string

const (
	Cover      AssetKind = "cover"
	BackCover  AssetKind = "backCover"
	Screenshot AssetKind = "screenshot"
)

// Kinds lists every asset kind in folder order.
var Kinds = []AssetKind{Cover, BackCover, Screenshot}

var kindFolders = map[AssetKind]string{
	Cover:      "covers",
	BackCover:  "backCovers",
	Screenshot: "screenshots",
}

// Folder returns the storage folder name for the kind.
func (k AssetKind) Folder() string {
	return kindFolders[k]
}

// Valid reports whether k is one of the known kinds.
func (k AssetKind) Valid() bool {
	_, ok := kindFolders[k]
	return ok
}

// KindFromFolder maps a folder name back to its asset kind.
func KindFromFolder(folder string) (AssetKind, bool) {
	for k, f := range kindFolders {
		if f == folder {
			return k, true
		}
	}
	return "", false
}
