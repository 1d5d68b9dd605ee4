package metadata

import "errors"

var (
	// ErrNotFound is returned when a record or owner does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional update finds a newer version.
	ErrConflict = errors.New("record was modified concurrently")
)
