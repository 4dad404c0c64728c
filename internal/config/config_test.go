package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv(EnvDriver, "")
	t.Setenv(EnvDSN, "")
	t.Setenv(EnvSnapshotDir, "")
	t.Setenv(EnvPlatform, "")
	return home
}

func TestDir_XDG(t *testing.T) {
	isolate(t)
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if dir != "/tmp/xdg/gemindex" {
		t.Errorf("Dir() = %q, want %q", dir, "/tmp/xdg/gemindex")
	}
}

func TestDir_Home(t *testing.T) {
	home := isolate(t)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	want := filepath.Join(home, ".config", "gemindex")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, "sqlite")
	}
	wantDSN := filepath.Join(home, ".gemindex", "gemindex.db")
	if cfg.Database.DSN != wantDSN {
		t.Errorf("DSN = %q, want %q", cfg.Database.DSN, wantDSN)
	}
	if cfg.Platform != "ruby" {
		t.Errorf("Platform = %q, want %q", cfg.Platform, "ruby")
	}
	wantSnapshots := filepath.Join(home, ".gemindex", "snapshots")
	if cfg.SnapshotDir != wantSnapshots {
		t.Errorf("SnapshotDir = %q, want %q", cfg.SnapshotDir, wantSnapshots)
	}
}

func TestLoad_File(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	content := `database:
  driver: postgres
  dsn: postgres://localhost/gems
snapshot_dir: /var/lib/gemindex
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Database.DSN != "postgres://localhost/gems" {
		t.Errorf("DSN = %q, want %q", cfg.Database.DSN, "postgres://localhost/gems")
	}
	if cfg.SnapshotDir != "/var/lib/gemindex" {
		t.Errorf("SnapshotDir = %q, want %q", cfg.SnapshotDir, "/var/lib/gemindex")
	}
	// Unset keys keep their defaults.
	if cfg.Platform != "ruby" {
		t.Errorf("Platform = %q, want %q", cfg.Platform, "ruby")
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	home := isolate(t)
	xdg := filepath.Join(home, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if err := os.MkdirAll(filepath.Join(xdg, "gemindex"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(xdg, "gemindex", "config.yaml"), []byte("platform: java\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Platform != "java" {
		t.Errorf("Platform = %q, want %q", cfg.Platform, "java")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: postgres\n  dsn: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDSN, "from-env")
	t.Setenv(EnvSnapshotDir, "/env/snapshots")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Database.DSN != "from-env" {
		t.Errorf("DSN = %q, want %q", cfg.Database.DSN, "from-env")
	}
	if cfg.SnapshotDir != "/env/snapshots" {
		t.Errorf("SnapshotDir = %q, want %q", cfg.SnapshotDir, "/env/snapshots")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(path, []byte("database: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for malformed YAML, got nil")
	}
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	home := isolate(t)
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte("GEMINDEX_DB_DSN=\"unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)

	if _, err := Load(filepath.Join(home, "missing.yaml")); err == nil {
		t.Error("Load() expected error for malformed .env, got nil")
	}
}

func TestLoad_NoDotEnv(t *testing.T) {
	home := isolate(t)
	t.Chdir(t.TempDir())

	if _, err := Load(filepath.Join(home, "missing.yaml")); err != nil {
		t.Errorf("Load() error = %v, want nil without a .env file", err)
	}
}
