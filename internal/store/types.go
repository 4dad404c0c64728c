package store

import "time"

// VersionInput describes a version row to insert. Nil pointers are stored
// as NULL.
type VersionInput struct {
	Number              string
	Platform            string // empty means "ruby"
	Indexed             bool
	Checksum            *string
	InfoChecksum        *string
	RequiredRubyVersion *string
	RubygemsVersion     *string
}

// Snapshot is the stored record of a captured set of index views.
type Snapshot struct {
	ID             int64
	CreatedAt      time.Time
	Reason         string
	PackageCount   int
	SnapshotPath   string
	NamesDigest    string
	VersionsDigest string
	DepsDigest     string
}
