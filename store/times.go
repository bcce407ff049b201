package store

import (
	"io/fs"
	"time"
)

// Times holds the timestamps a backend can report for a path.
type Times struct {
	Access time.Time
	Modify time.Time
	Change time.Time
	Birth  time.Time
}

// TimesOf extracts timestamps from info. Overlay entries report their own
// write times; for any other backend every field falls back to ModTime.
func TimesOf(info fs.FileInfo) Times {
	if t, ok := info.Sys().(*Times); ok && t != nil {
		return *t
	}
	m := info.ModTime()
	return Times{Access: m, Modify: m, Change: m, Birth: m}
}

// overlayInfo decorates an overlay FileInfo with the entry's write times.
type overlayInfo struct {
	fs.FileInfo
	times *Times
}

// ModTime returns the time of the last overwrite.
func (i *overlayInfo) ModTime() time.Time { return i.times.Modify }

// Sys returns the entry's *Times.
func (i *overlayInfo) Sys() any { return i.times }

// Compile-time interface checks.
var _ fs.FileInfo = (*overlayInfo)(nil)
