package index

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/store"
)

// PackageVersions is one line of the versions view.
type PackageVersions struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
	// InfoChecksum is the info checksum of the most recently created
	// indexed version, nil when that version has none.
	InfoChecksum *string `json:"info_checksum"`
}

// VersionMap maps gem names to their version labels.
type VersionMap map[string][]string

// Names returns the map keys in ascending byte order, the order lines are
// emitted in.
func (m VersionMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Versions returns the labels of every indexed version, grouped by gem.
// Gems without indexed versions are absent.
func (q *Query) Versions(ctx context.Context) (VersionMap, error) {
	list, err := q.VersionList(ctx)
	if err != nil {
		return nil, err
	}

	versions := make(VersionMap, len(list))
	for _, pv := range list {
		versions[pv.Name] = pv.Labels
	}
	return versions, nil
}

// VersionList returns the versions view as ordered lines. Within a gem,
// labels sort by number, then the canonical platform, then other platforms,
// all compared byte-wise.
func (q *Query) VersionList(ctx context.Context) ([]PackageVersions, error) {
	list := []PackageVersions{}

	err := q.withConn(ctx, "versions", func(conn *store.Conn) error {
		d := conn.Dialect()
		query := `
			SELECT r.name, v.id, v.number, v.platform, v.info_checksum
			FROM rubygems r
			JOIN versions v ON v.rubygem_id = r.id
			WHERE v.indexed = TRUE
			ORDER BY ` + d.Bytewise("r.name") + `, ` + d.Bytewise("v.number") + `,
				CASE WHEN v.platform = ? THEN 0 ELSE 1 END, ` + d.Bytewise("v.platform")

		rows, err := conn.QueryContext(ctx, query, q.platform)
		if err != nil {
			return fmt.Errorf("failed to list versions: %w", err)
		}
		defer rows.Close()

		var current *PackageVersions
		var latestID int64
		for rows.Next() {
			var (
				name, number, platform string
				id                     int64
				infoChecksum           sql.NullString
			)
			if err := rows.Scan(&name, &id, &number, &platform, &infoChecksum); err != nil {
				return fmt.Errorf("failed to scan version row: %w", err)
			}

			if current == nil || current.Name != name {
				list = append(list, PackageVersions{Name: name})
				current = &list[len(list)-1]
				latestID = 0
			}

			current.Labels = append(current.Labels, q.label(number, platform))
			if id > latestID {
				latestID = id
				current.InfoChecksum = nullable(infoChecksum)
			}
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating versions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// label applies the label rule against the configured canonical platform.
func (q *Query) label(number, platform string) string {
	if q.platform == gem.DefaultPlatform {
		return gem.Label(number, platform)
	}
	if platform == q.platform {
		return number
	}
	return number + "-" + platform
}
