package snapshots

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/gemindex/internal/index"
	"github.com/blackwell-systems/gemindex/internal/store"
)

func setupManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()

	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	ctx := context.Background()
	rack, err := st.EnsureRubygem(ctx, "rack")
	if err != nil {
		t.Fatalf("EnsureRubygem(rack) error: %v", err)
	}
	foo, err := st.EnsureRubygem(ctx, "foo")
	if err != nil {
		t.Fatalf("EnsureRubygem(foo) error: %v", err)
	}
	if _, err := st.CreateVersion(ctx, rack, store.VersionInput{Number: "1.0.0", Indexed: true}); err != nil {
		t.Fatalf("CreateVersion(rack) error: %v", err)
	}
	fooID, err := st.CreateVersion(ctx, foo, store.VersionInput{Number: "1.0.0", Indexed: true})
	if err != nil {
		t.Fatalf("CreateVersion(foo) error: %v", err)
	}
	if _, err := st.CreateDependency(ctx, fooID, rack, "= 1.0.0"); err != nil {
		t.Fatalf("CreateDependency() error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "snapshots")
	return New(st, index.New(st), dir), st
}

func TestCapture(t *testing.T) {
	m, _ := setupManager(t)

	views, err := Capture(context.Background(), m.query)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}

	if len(views.Names) != 2 || views.Names[0] != "foo" || views.Names[1] != "rack" {
		t.Errorf("Names = %v, want [foo rack]", views.Names)
	}
	if len(views.Versions) != 2 {
		t.Errorf("len(Versions) = %d, want 2", len(views.Versions))
	}
	if len(views.Deps) != 2 {
		t.Fatalf("len(Deps) = %d, want 2", len(views.Deps))
	}
	if got := views.Deps[0].Dependencies; len(got) != 1 || got[0].Name != "rack" {
		t.Errorf("foo dependencies = %v, want [rack]", got)
	}
}

func TestDigest_Stable(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	first, err := m.LiveDigests(ctx)
	if err != nil {
		t.Fatalf("LiveDigests() error: %v", err)
	}
	second, err := m.LiveDigests(ctx)
	if err != nil {
		t.Fatalf("LiveDigests() error: %v", err)
	}

	if first != second {
		t.Errorf("digests differ across calls on unchanged data: %+v vs %+v", first, second)
	}
	if len(first.Names) != 16 {
		t.Errorf("digest %q should be 16 hex chars", first.Names)
	}
}

func TestDigests_Changed(t *testing.T) {
	a := Digests{Names: "1", Versions: "2", Deps: "3"}

	if changed := a.Changed(a); len(changed) != 0 {
		t.Errorf("Changed(self) = %v, want none", changed)
	}

	b := Digests{Names: "1", Versions: "x", Deps: "y"}
	changed := a.Changed(b)
	if len(changed) != 2 || changed[0] != ViewVersions || changed[1] != ViewDeps {
		t.Errorf("Changed() = %v, want [versions deps]", changed)
	}
}

func TestCreate(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "manual")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if snap.ID == 0 {
		t.Error("expected non-zero snapshot ID")
	}
	if snap.PackageCount != 2 {
		t.Errorf("PackageCount = %d, want 2", snap.PackageCount)
	}
	if _, err := os.Stat(snap.SnapshotPath); err != nil {
		t.Errorf("snapshot file not written: %v", err)
	}

	stored, err := st.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() error: %v", err)
	}
	if stored.Reason != "manual" {
		t.Errorf("Reason = %q, want %q", stored.Reason, "manual")
	}
	if stored.NamesDigest != snap.NamesDigest {
		t.Errorf("NamesDigest = %q, want %q", stored.NamesDigest, snap.NamesDigest)
	}

	list, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d snapshots, want 1", len(list))
	}
}

func TestLoad(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "manual")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	data, err := m.Load(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if data.Reason != "manual" {
		t.Errorf("Reason = %q, want %q", data.Reason, "manual")
	}
	if len(data.Views.Names) != 2 {
		t.Errorf("len(Names) = %d, want 2", len(data.Views.Names))
	}
}

func TestLoad_Corrupt(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "manual")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	data, err := loadSnapshotFile(snap.SnapshotPath)
	if err != nil {
		t.Fatalf("loadSnapshotFile() error: %v", err)
	}
	data.Views.Names = append(data.Views.Names, "intruder")
	writeSnapshotFile(t, snap.SnapshotPath, data)

	_, err = m.Load(ctx, snap.ID)
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("Load() error = %v, want ErrCorruptSnapshot", err)
	}
}

func TestLoad_InvalidUTF8Name(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()

	id, err := st.EnsureRubygem(ctx, "bad\xffname")
	if err != nil {
		t.Fatalf("EnsureRubygem() error: %v", err)
	}
	if _, err := st.CreateVersion(ctx, id, store.VersionInput{Number: "1.0.0", Indexed: true}); err != nil {
		t.Fatalf("CreateVersion() error: %v", err)
	}

	snap, err := m.Create(ctx, "manual")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := m.Load(ctx, snap.ID); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}

	drift, err := m.Check(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if len(drift.Changed) != 0 {
		t.Errorf("Changed = %v, want none", drift.Changed)
	}
}

func TestLoad_NotFound(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Load(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestCheck(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()

	if _, err := m.Check(ctx, 0); !errors.Is(err, ErrNoSnapshots) {
		t.Fatalf("Check() with no snapshots error = %v, want ErrNoSnapshots", err)
	}

	snap, err := m.Create(ctx, "baseline")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	drift, err := m.Check(ctx, 0)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if drift.Snapshot.ID != snap.ID {
		t.Errorf("Check() compared against snapshot %d, want %d", drift.Snapshot.ID, snap.ID)
	}
	if len(drift.Changed) != 0 {
		t.Errorf("Changed = %v, want none", drift.Changed)
	}

	// Yanking rack changes the versions view and foo's dependency list but
	// leaves the name list alone.
	if err := st.SetIndexed(ctx, "rack", "1.0.0", "ruby", false); err != nil {
		t.Fatalf("SetIndexed() error: %v", err)
	}

	drift, err = m.Check(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	want := []string{ViewVersions, ViewDeps}
	if len(drift.Changed) != len(want) {
		t.Fatalf("Changed = %v, want %v", drift.Changed, want)
	}
	for i := range want {
		if drift.Changed[i] != want[i] {
			t.Errorf("Changed[%d] = %q, want %q", i, drift.Changed[i], want[i])
		}
	}
}
