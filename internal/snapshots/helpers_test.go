package snapshots

import (
	"encoding/json"
	"os"
	"testing"
)

func writeSnapshotFile(t *testing.T, path string, data *SnapshotData) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
}
