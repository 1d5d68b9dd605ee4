package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Bytes formats a size, e.g. "1.5 MiB".
func Bytes(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Ago formats t relative to now; the zero time renders as "-".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
