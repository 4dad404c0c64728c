package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/zerr"
)

const defaultPlatform = "ruby"

// insertReturningID runs an INSERT ... RETURNING id statement. Both SQLite
// and Postgres support RETURNING; pgx does not implement LastInsertId.
func (s *Store) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&id); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Rubygem operations

// CreateRubygem inserts a gem name and returns its ID.
func (s *Store) CreateRubygem(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO rubygems (name, created_at)
		VALUES (?, ?)
		RETURNING id
	`

	id, err := s.insertReturningID(ctx, query, name, now())
	if err != nil {
		return 0, fmt.Errorf("failed to insert rubygem %s: %w", name, err)
	}

	return id, nil
}

// RubygemID looks up a gem's ID by name.
func (s *Store) RubygemID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT id FROM rubygems WHERE name = ?`), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, zerr.With(zerr.Wrap(ErrNotFound, "rubygem"), "name", name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rubygem %s: %w", name, classify(err))
	}
	return id, nil
}

// EnsureRubygem returns the ID of the named gem, creating it if needed.
func (s *Store) EnsureRubygem(ctx context.Context, name string) (int64, error) {
	id, err := s.RubygemID(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	return s.CreateRubygem(ctx, name)
}

// Version operations

// CreateVersion inserts a version row for a gem and returns its ID.
func (s *Store) CreateVersion(ctx context.Context, rubygemID int64, v VersionInput) (int64, error) {
	platform := v.Platform
	if platform == "" {
		platform = defaultPlatform
	}

	query := `
		INSERT INTO versions
		(rubygem_id, number, platform, indexed, checksum, info_checksum, required_ruby_version, rubygems_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	id, err := s.insertReturningID(ctx, query,
		rubygemID,
		v.Number,
		platform,
		v.Indexed,
		v.Checksum,
		v.InfoChecksum,
		v.RequiredRubyVersion,
		v.RubygemsVersion,
		now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert version %s: %w", v.Number, err)
	}

	return id, nil
}

// SetIndexed flips the indexed flag of one version, identified by gem name,
// number and platform. Yanking a version is SetIndexed(..., false).
func (s *Store) SetIndexed(ctx context.Context, name, number, platform string, indexed bool) error {
	if platform == "" {
		platform = defaultPlatform
	}

	query := `
		UPDATE versions SET indexed = ?
		WHERE number = ? AND platform = ?
		AND rubygem_id = (SELECT id FROM rubygems WHERE name = ?)
	`

	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), indexed, number, platform, name)
	if err != nil {
		return fmt.Errorf("failed to update version %s %s: %w", name, number, classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		err := zerr.With(zerr.Wrap(ErrNotFound, "version"), "name", name)
		return zerr.With(zerr.With(err, "number", number), "platform", platform)
	}

	return nil
}

// Dependency operations

// CreateDependency records that a version requires the gem rubygemID.
// Edges are returned by the index in creation order.
func (s *Store) CreateDependency(ctx context.Context, versionID, rubygemID int64, requirements string) (int64, error) {
	query := `
		INSERT INTO dependencies (version_id, rubygem_id, requirements)
		VALUES (?, ?, ?)
		RETURNING id
	`

	id, err := s.insertReturningID(ctx, query, versionID, rubygemID, requirements)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dependency %d -> %d: %w", versionID, rubygemID, err)
	}

	return id, nil
}

// Snapshot operations

// InsertSnapshot records a captured snapshot and returns its ID.
func (s *Store) InsertSnapshot(ctx context.Context, snap *Snapshot) (int64, error) {
	query := `
		INSERT INTO snapshots (created_at, reason, package_count, snapshot_path, names_digest, versions_digest, deps_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	id, err := s.insertReturningID(ctx, query,
		createdAt.UTC().Format(time.RFC3339),
		snap.Reason,
		snap.PackageCount,
		snap.SnapshotPath,
		snap.NamesDigest,
		snap.VersionsDigest,
		snap.DepsDigest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return id, nil
}

const snapshotColumns = `id, created_at, reason, package_count, snapshot_path, names_digest, versions_digest, deps_digest`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snapshot Snapshot
	var createdAt string

	err := row.Scan(
		&snapshot.ID,
		&createdAt,
		&snapshot.Reason,
		&snapshot.PackageCount,
		&snapshot.SnapshotPath,
		&snapshot.NamesDigest,
		&snapshot.VersionsDigest,
		&snapshot.DepsDigest,
	)
	if err != nil {
		return nil, err
	}

	snapshot.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for snapshot %d: %w", snapshot.ID, err)
	}

	return &snapshot, nil
}

// GetSnapshot retrieves a snapshot by ID.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = ?`

	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zerr.With(zerr.Wrap(ErrNotFound, "snapshot"), "id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %d: %w", id, classify(err))
	}

	return snapshot, nil
}

// LatestSnapshot returns the most recently recorded snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY id DESC LIMIT 1`

	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zerr.Wrap(ErrNotFound, "snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", classify(err))
	}

	return snapshot, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", classify(err))
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
