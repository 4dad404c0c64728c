package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/gemindex/internal/config"
	"github.com/blackwell-systems/gemindex/internal/gem"
)

const testFixture = `gems:
  - name: rack
    versions:
      - number: 1.0.0
        checksum: abc
        info_checksum: info-rack
  - name: foo
    versions:
      - number: 1.0.0
        rubygems_version: ">= 3.0"
        dependencies:
          - name: rack
            requirement: "= 1.0.0"
      - number: 1.0.0
        platform: java
  - name: old
    versions:
      - number: 0.1.0
        indexed: false
`

// setupEnv isolates config lookup and returns a database path inside a temp
// directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv(config.EnvDriver, "")
	t.Setenv(config.EnvDSN, "")
	t.Setenv(config.EnvSnapshotDir, "")
	t.Setenv(config.EnvPlatform, "")
	return filepath.Join(home, "data", "gemindex.db")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func resetFlags() {
	dbPath = ""
	dbDriver = ""
	configPath = ""
	verbose = false
	jsonOutput = false
	infoPURL = false
	yankPlatform = gem.DefaultPlatform
	snapshotReason = "manual"
	watchInterval = 0
}

// runCLI executes the root command with args and returns what it printed
// to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	defer RootCmd.SetArgs(nil)

	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// importFixture loads testFixture into db.
func importFixture(t *testing.T, db string) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "gems.yaml", testFixture)
	if _, err := runCLI(t, "--db", db, "import", path); err != nil {
		t.Fatalf("import failed: %v", err)
	}
}
