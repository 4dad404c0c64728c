package store

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect identifies the SQL flavour of a store.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// ErrUnknownDriver is returned by ParseDialect for unsupported drivers.
var ErrUnknownDriver = zerr.New("unknown database driver")

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite, "sqlite3":
		return SQLite, nil
	case DriverPostgres, "postgresql", "pgx":
		return Postgres, nil
	default:
		return 0, zerr.With(zerr.Wrap(ErrUnknownDriver, "failed to parse driver"), "driver", driver)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) String() string {
	if d == Postgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// Rebind rewrites "?" placeholders into the dialect's form. Queries must
// not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// Bytewise returns expr with a collation that orders strings byte by byte.
// SQLite's default BINARY collation already does.
func (d Dialect) Bytewise(expr string) string {
	if d == Postgres {
		return expr + ` COLLATE "C"`
	}
	return expr
}

// Placeholders returns n comma-separated "?" placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
