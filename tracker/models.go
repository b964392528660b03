package tracker

import "time"

// nowFunc is the time source, replaceable in tests.
var nowFunc = time.Now

// Entry represents one tracked configuration file.
// Path is the canonical absolute path at tracking time and is the unique key.
type Entry struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
	Content     []byte `json:"-"`
	TrackedAt   int64  `json:"trackedAt"` // nanoseconds
	SavedAt     int64  `json:"savedAt"`   // nanoseconds
}

// Status classifies a tracked entry against the live filesystem.
// It is derived on every query and never persisted.
type Status int

const (
	StatusClean Status = iota
	StatusDirty
	StatusMissing
	StatusDeleted // gone locally and on the remote
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusDirty:
		return "dirty"
	case StatusMissing:
		return "missing"
	case StatusDeleted:
		return "deleted"
	}
	return "unknown"
}

// EntryStatus pairs an entry with its computed status for listings.
type EntryStatus struct {
	Entry  Entry
	Status Status
}
