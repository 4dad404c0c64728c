package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store is the relational handle behind the index: rubygems, versions and
// dependency edges, plus the snapshot records kept by the CLI.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New opens a SQLite store at the specified database path.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open opens a store for the given driver ("sqlite" or "postgres") and DSN.
func Open(driver, dsn string) (*Store, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == SQLite {
		// SQLite only allows one writer at a time, and ":memory:" databases
		// exist per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &Store{db: db, dialect: dialect}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL dialect the store speaks.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("failed to ping database: %w", err))
	}
	return nil
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	ddl := sqliteSchema
	if s.dialect == Postgres {
		ddl = postgresSchema
	}
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Conn is a single connection checked out of the pool. All reads made
// through it see the same session; Close returns it to the pool.
type Conn struct {
	conn    *sql.Conn
	dialect Dialect
}

// Conn checks out one connection for a read. Callers must Close it.
func (s *Store) Conn(ctx context.Context) (*Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to acquire connection: %w", err))
	}
	return &Conn{conn: c, dialect: s.dialect}, nil
}

// QueryContext runs a query written with "?" placeholders, rebinding them
// for the connection's dialect.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.conn.QueryContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// Dialect reports the dialect of the connection.
func (c *Conn) Dialect() Dialect {
	return c.dialect
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}
