package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/config"
	"github.com/blackwell-systems/gemindex/internal/index"
	"github.com/blackwell-systems/gemindex/internal/snapshots"
	"github.com/blackwell-systems/gemindex/internal/store"
)

// session bundles what a command needs to reach the store.
type session struct {
	cfg    *config.Config
	store  *store.Store
	query  *index.Query
	logger *slog.Logger
}

// loadConfig resolves the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbPath != "" {
		cfg.Database.DSN = dbPath
	}
	return cfg, nil
}

// openSession opens the configured store. For SQLite the parent directory
// of the database file is created if needed.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dialect, err := store.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if path := sqliteFile(dialect, cfg.Database.DSN); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := newLogger(os.Stderr)
	return &session{
		cfg:    cfg,
		store:  st,
		query:  index.New(st, index.WithLogger(logger), index.WithPlatform(cfg.Platform)),
		logger: logger,
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

func (s *session) snapshots() *snapshots.Manager {
	return snapshots.New(s.store, s.query, s.cfg.SnapshotDir)
}

// sqliteFile returns the database file behind a SQLite DSN, or "" for
// Postgres and in-memory databases.
func sqliteFile(dialect store.Dialect, dsn string) string {
	if dialect != store.SQLite || dsn == "" || dsn == ":memory:" {
		return ""
	}
	return dsn
}

// newLogger returns a text logger writing to w; debug records are only
// emitted with --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// cmdContext returns the command context, or context.Background() when the
// command runs outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
