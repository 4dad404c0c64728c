package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.trai.ch/zerr"
)

// ErrCorruptSnapshot is returned when a snapshot file no longer matches the
// digests recorded for it.
var ErrCorruptSnapshot = zerr.New("snapshot file does not match its recorded digests")

// Load reads the views recorded by snapshot id and verifies them against the
// digests stored in the database.
func (m *Manager) Load(ctx context.Context, id int64) (*SnapshotData, error) {
	snap, err := m.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	data, err := loadSnapshotFile(snap.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot file: %w", err)
	}

	digests, err := data.Views.Digest()
	if err != nil {
		return nil, err
	}
	if changed := recordDigests(snap).Changed(digests); len(changed) > 0 {
		return nil, zerr.With(zerr.With(zerr.Wrap(ErrCorruptSnapshot, "snapshot verification failed"),
			"snapshot_id", id), "views", changed)
	}

	return data, nil
}

// loadSnapshotFile reads and parses a snapshot JSON file.
func loadSnapshotFile(path string) (*SnapshotData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var data SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &data, nil
}
