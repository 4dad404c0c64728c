package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.trai.ch/zerr"

	"github.com/blackwell-systems/gemindex/internal/store"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "gemindex" {
		t.Errorf("expected Use to be 'gemindex', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expectedCommands := []string{"names", "versions", "deps", "info", "import", "yank", "unyank", "snapshot", "watch"}
	foundCommands := make(map[string]bool)

	for _, cmd := range RootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"db", "driver", "config", "verbose", "json"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestRootCommandPrintsHint(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t)
	if err != nil {
		t.Fatalf("root command error: %v", err)
	}
	if !strings.Contains(out, "gemindex import") {
		t.Errorf("expected hint about import, got: %q", out)
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	home := setupEnv(t)
	cfgFile := writeFile(t, t.TempDir(), "config.yaml", "database:\n  driver: postgres\n  dsn: from-file\n")

	resetFlags()
	t.Cleanup(resetFlags)
	configPath = cfgFile
	dbDriver = "sqlite"
	dbPath = home

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Database.DSN != home {
		t.Errorf("DSN = %q, want %q", cfg.Database.DSN, home)
	}
}

func TestLoadConfig_FileOnly(t *testing.T) {
	setupEnv(t)
	cfgFile := writeFile(t, t.TempDir(), "config.yaml", "database:\n  dsn: /srv/gems.db\nplatform: java\n")

	resetFlags()
	t.Cleanup(resetFlags)
	configPath = cfgFile

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Database.DSN != "/srv/gems.db" {
		t.Errorf("DSN = %q, want %q", cfg.Database.DSN, "/srv/gems.db")
	}
	if cfg.Platform != "java" {
		t.Errorf("Platform = %q, want %q", cfg.Platform, "java")
	}
}

func TestOpenSession_CreatesDatabaseDirectory(t *testing.T) {
	db := setupEnv(t)

	resetFlags()
	t.Cleanup(resetFlags)
	dbPath = db

	s, err := openSession()
	if err != nil {
		t.Fatalf("openSession() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(db)); err != nil {
		t.Errorf("expected database directory to exist: %v", err)
	}
}

func TestOpenSession_UnknownDriver(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "--driver", "oracle", "names")
	if !errors.Is(err, store.ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got: %v", err)
	}
}

func TestReportError(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	var buf bytes.Buffer
	ReportError(&buf, errors.New("boom"))
	if buf.String() != "Error: boom\n" {
		t.Errorf("ReportError() = %q, want %q", buf.String(), "Error: boom\n")
	}

	buf.Reset()
	verbose = true
	ReportError(&buf, zerr.With(zerr.New("store failed"), "op", "names"))
	if !strings.Contains(buf.String(), "store failed") || !strings.Contains(buf.String(), "op=names") {
		t.Errorf("verbose ReportError() = %q, want message and op field", buf.String())
	}
}
