package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"

	"github.com/blackwell-systems/gemindex/internal/store"
)

// ErrNoSnapshots is returned by Check when no snapshot has been recorded.
var ErrNoSnapshots = zerr.New("no snapshots recorded")

// Create captures the views, writes them to a JSON file in the snapshot
// directory and records the snapshot in the store.
func (m *Manager) Create(ctx context.Context, reason string) (*store.Snapshot, error) {
	if err := os.MkdirAll(m.snapshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	views, err := Capture(ctx, m.query)
	if err != nil {
		return nil, fmt.Errorf("failed to capture views: %w", err)
	}
	digests, err := views.Digest()
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	data := &SnapshotData{
		CreatedAt: createdAt,
		Reason:    reason,
		Digests:   digests,
		Views:     *views,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot data: %w", err)
	}

	// YYYYMMDD-HHMMSS.nnnnnnnnn.json keeps files sortable and distinct.
	snapshotPath := filepath.Join(m.snapshotDir, createdAt.Format("20060102-150405.000000000")+".json")
	if err := os.WriteFile(snapshotPath, jsonData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot file: %w", err)
	}

	snap := &store.Snapshot{
		CreatedAt:      createdAt,
		Reason:         reason,
		PackageCount:   len(views.Names),
		SnapshotPath:   snapshotPath,
		NamesDigest:    digests.Names,
		VersionsDigest: digests.Versions,
		DepsDigest:     digests.Deps,
	}

	id, err := m.store.InsertSnapshot(ctx, snap)
	if err != nil {
		os.Remove(snapshotPath)
		return nil, fmt.Errorf("failed to insert snapshot into database: %w", err)
	}
	snap.ID = id
	snap.CreatedAt = createdAt.Truncate(time.Second)

	return snap, nil
}

// List returns all recorded snapshots, newest first.
func (m *Manager) List(ctx context.Context) ([]*store.Snapshot, error) {
	snapshots, err := m.store.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// Check compares the live views against snapshot id, or against the latest
// snapshot when id is 0.
func (m *Manager) Check(ctx context.Context, id int64) (*Drift, error) {
	var (
		snap *store.Snapshot
		err  error
	)
	if id == 0 {
		snap, err = m.store.LatestSnapshot(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoSnapshots
		}
	} else {
		snap, err = m.store.GetSnapshot(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	live, err := m.LiveDigests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture views: %w", err)
	}

	return &Drift{
		Snapshot: snap,
		Live:     live,
		Changed:  recordDigests(snap).Changed(live),
	}, nil
}
