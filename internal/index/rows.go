package index

import (
	"database/sql"
	"log/slog"

	"github.com/blackwell-systems/gemindex/internal/gem"
)

// versionColumns and dependencyJoins are shared by the queries that
// materialize versions together with their dependency edges. Each result row
// is one (version, edge) pair; versions without edges yield a single row with
// NULL edge columns.
const versionColumns = `
	v.id, v.number, v.platform, v.checksum, v.info_checksum,
	v.required_ruby_version, v.rubygems_version,
	d.id, t.name, d.requirements,
	CASE WHEN EXISTS (
		SELECT 1 FROM versions tv WHERE tv.rubygem_id = d.rubygem_id AND tv.indexed = TRUE
	) THEN 1 ELSE 0 END`

const dependencyJoins = `
	LEFT JOIN dependencies d ON d.version_id = v.id
	LEFT JOIN rubygems t ON t.id = d.rubygem_id`

// versionRow is the raw shape of one joined row. Nullable columns stay
// nullable here; record is the only place they become gem.Version fields.
type versionRow struct {
	id                  int64
	number              string
	platform            string
	checksum            sql.NullString
	infoChecksum        sql.NullString
	requiredRubyVersion sql.NullString
	rubygemsVersion     sql.NullString

	depID         sql.NullInt64
	depName       sql.NullString
	requirements  sql.NullString
	targetIndexed int64
}

// dest returns the scan targets, with any leading columns first.
func (r *versionRow) dest(leading ...any) []any {
	return append(leading,
		&r.id, &r.number, &r.platform, &r.checksum, &r.infoChecksum,
		&r.requiredRubyVersion, &r.rubygemsVersion,
		&r.depID, &r.depName, &r.requirements, &r.targetIndexed,
	)
}

// versionBuilder accumulates the edges of one version across rows.
type versionBuilder struct {
	row  versionRow
	deps []gem.Dependency
}

func newVersionBuilder(row versionRow) *versionBuilder {
	return &versionBuilder{row: row, deps: []gem.Dependency{}}
}

// addEdge appends the row's edge if it should surface: edges to gems with no
// row are malformed and skipped with a warning, edges to gems without an
// indexed version are dropped.
func (b *versionBuilder) addEdge(row versionRow, gemName string, logger *slog.Logger) {
	if !row.depID.Valid {
		return
	}
	if !row.depName.Valid {
		logger.Warn("skipping dependency on missing rubygem",
			"gem", gemName,
			"version", row.number,
			"dependency_id", row.depID.Int64,
		)
		return
	}
	if row.targetIndexed == 0 {
		logger.Debug("skipping dependency without indexed versions",
			"gem", gemName,
			"version", row.number,
			"dependency", row.depName.String,
		)
		return
	}
	b.deps = append(b.deps, gem.Dependency{
		Name:        row.depName.String,
		Requirement: row.requirements.String,
	})
}

// record converts the accumulated row into a gem.Version.
func (b *versionBuilder) record() (gem.Version, error) {
	r := b.row
	opts := []gem.Option{gem.WithDependencies(b.deps)}
	if r.checksum.Valid {
		opts = append(opts, gem.WithChecksum(r.checksum.String))
	}
	if r.infoChecksum.Valid {
		opts = append(opts, gem.WithInfoChecksum(r.infoChecksum.String))
	}
	if r.requiredRubyVersion.Valid {
		opts = append(opts, gem.WithRequiredRubyVersion(r.requiredRubyVersion.String))
	}
	if r.rubygemsVersion.Valid {
		opts = append(opts, gem.WithRubygemsVersion(r.rubygemsVersion.String))
	}
	return gem.NewVersion(r.number, r.platform, opts...)
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}
