package index

import (
	"context"
	"fmt"
	"slices"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/store"
)

// Summary is the dependency manifest of a gem's representative version.
// Optional fields are nil when the store has no value.
type Summary struct {
	Name                string           `json:"name"`
	Number              string           `json:"number"`
	Platform            string           `json:"platform"`
	RubygemsVersion     *string          `json:"rubygems_version"`
	RequiredRubyVersion *string          `json:"required_ruby_version"`
	Checksum            *string          `json:"checksum"`
	Dependencies        []gem.Dependency `json:"dependencies"`
}

func summarize(name string, v gem.Version) Summary {
	return Summary{
		Name:                name,
		Number:              v.Number(),
		Platform:            v.Platform(),
		RubygemsVersion:     optional(v.RubygemsVersion()),
		RequiredRubyVersion: optional(v.RequiredRubyVersion()),
		Checksum:            optional(v.Checksum()),
		Dependencies:        v.Dependencies(),
	}
}

// DepsFor returns one Summary per requested gem, in ascending name order.
// A nil names slice means every gem; names that do not exist are ignored.
//
// The representative of a gem is its most recently created indexed version on
// the canonical platform (highest version ID). Gems without one are omitted.
// Dependencies keep edge creation order and only include targets that have
// at least one indexed version.
func (q *Query) DepsFor(ctx context.Context, names []string) ([]Summary, error) {
	summaries := []Summary{}
	if names != nil && len(names) == 0 {
		return summaries, nil
	}

	names = dedupe(names)

	err := q.withConn(ctx, "deps", func(conn *store.Conn) error {
		if names == nil {
			return q.scanSummaries(ctx, conn, nil, &summaries)
		}
		for chunk := range slices.Chunk(names, maxNamesPerQuery) {
			if err := q.scanSummaries(ctx, conn, chunk, &summaries); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// maxNamesPerQuery bounds the bound parameters of one IN filter. SQLite
// caps a statement at 32766 variables.
const maxNamesPerQuery = 500

// scanSummaries appends the summaries of the given names to out. A nil names
// slice selects every gem. Names must be sorted bytewise so that successive
// chunks keep ascending order.
func (q *Query) scanSummaries(ctx context.Context, conn *store.Conn, names []string, out *[]Summary) error {
	d := conn.Dialect()
	args := []any{q.platform, q.platform}

	filter := ""
	if names != nil {
		filter = ` AND r.name IN (` + store.Placeholders(len(names)) + `)`
		for _, name := range names {
			args = append(args, name)
		}
	}

	query := `
		SELECT r.name, ` + versionColumns + `
		FROM rubygems r
		JOIN versions v ON v.rubygem_id = r.id` + dependencyJoins + `
		WHERE v.indexed = TRUE AND v.platform = ?
		AND v.id = (
			SELECT MAX(l.id) FROM versions l
			WHERE l.rubygem_id = r.id AND l.indexed = TRUE AND l.platform = ?
		)` + filter + `
		ORDER BY ` + d.Bytewise("r.name") + `, d.id`

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	var (
		currentName string
		builder     *versionBuilder
	)
	flush := func() {
		if builder == nil {
			return
		}
		v, err := builder.record()
		if err != nil {
			q.logger.Warn("skipping malformed version row", "gem", currentName, "version_id", builder.row.id, "error", err)
			return
		}
		*out = append(*out, summarize(currentName, v))
	}

	for rows.Next() {
		var row versionRow
		var name string
		if err := rows.Scan(row.dest(&name)...); err != nil {
			return fmt.Errorf("failed to scan dependency row: %w", err)
		}

		if builder == nil || name != currentName {
			flush()
			currentName = name
			builder = newVersionBuilder(row)
		}
		builder.addEdge(row, name, q.logger)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating dependencies: %w", err)
	}

	flush()
	return nil
}

// Info returns every indexed version of the named gem in creation order,
// each with its checksums and filtered dependencies. An unknown gem yields
// an empty slice.
func (q *Query) Info(ctx context.Context, name string) ([]gem.Version, error) {
	versions := []gem.Version{}

	err := q.withConn(ctx, "info", func(conn *store.Conn) error {
		query := `
			SELECT ` + versionColumns + `
			FROM rubygems r
			JOIN versions v ON v.rubygem_id = r.id` + dependencyJoins + `
			WHERE r.name = ? AND v.indexed = TRUE
			ORDER BY v.id, d.id`

		rows, err := conn.QueryContext(ctx, query, name)
		if err != nil {
			return fmt.Errorf("failed to query info for %s: %w", name, err)
		}
		defer rows.Close()

		var builder *versionBuilder
		flush := func() {
			if builder == nil {
				return
			}
			v, err := builder.record()
			if err != nil {
				q.logger.Warn("skipping malformed version row", "gem", name, "version_id", builder.row.id, "error", err)
				return
			}
			versions = append(versions, v)
		}

		for rows.Next() {
			var row versionRow
			if err := rows.Scan(row.dest()...); err != nil {
				return fmt.Errorf("failed to scan info row: %w", err)
			}

			if builder == nil || row.id != builder.row.id {
				flush()
				builder = newVersionBuilder(row)
			}
			builder.addEdge(row, name, q.logger)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating info rows: %w", err)
		}

		flush()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return versions, nil
}

// dedupe drops repeated names, keeping nil as nil.
func dedupe(names []string) []string {
	if names == nil {
		return nil
	}
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
