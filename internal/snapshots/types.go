// Package snapshots captures the index views at a point in time, records
// them on disk and in the store, and detects when the live views drift from a
// recorded capture.
package snapshots

import (
	"time"

	"github.com/blackwell-systems/gemindex/internal/index"
	"github.com/blackwell-systems/gemindex/internal/store"
)

// View names, in the order drift is reported.
const (
	ViewNames    = "names"
	ViewVersions = "versions"
	ViewDeps     = "deps"
)

// Views holds the three index views captured together.
type Views struct {
	Names    []string                `json:"names"`
	Versions []index.PackageVersions `json:"versions"`
	Deps     []index.Summary         `json:"deps"`
}

// Digests fingerprints each view of a capture.
type Digests struct {
	Names    string `json:"names"`
	Versions string `json:"versions"`
	Deps     string `json:"deps"`
}

// Changed returns the views whose digest differs between d and other.
func (d Digests) Changed(other Digests) []string {
	var changed []string
	if d.Names != other.Names {
		changed = append(changed, ViewNames)
	}
	if d.Versions != other.Versions {
		changed = append(changed, ViewVersions)
	}
	if d.Deps != other.Deps {
		changed = append(changed, ViewDeps)
	}
	return changed
}

// SnapshotData is the JSON structure stored in snapshot files.
type SnapshotData struct {
	CreatedAt time.Time `json:"created_at"`
	Reason    string    `json:"reason"`
	Digests   Digests   `json:"digests"`
	Views     Views     `json:"views"`
}

// Drift compares a recorded snapshot against the live views.
type Drift struct {
	Snapshot *store.Snapshot
	Live     Digests
	Changed  []string
}

// Manager creates, lists and checks snapshots.
type Manager struct {
	store       *store.Store
	query       *index.Query
	snapshotDir string
}

// New creates a new snapshot Manager. Views are read through query and
// snapshot rows are written to st.
func New(st *store.Store, query *index.Query, snapshotDir string) *Manager {
	return &Manager{
		store:       st,
		query:       query,
		snapshotDir: snapshotDir,
	}
}

func recordDigests(snap *store.Snapshot) Digests {
	return Digests{
		Names:    snap.NamesDigest,
		Versions: snap.VersionsDigest,
		Deps:     snap.DepsDigest,
	}
}
