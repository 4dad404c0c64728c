// Package index projects the indexed rows of the gem store into the three
// views the compact index is built from: the name list, the version list and
// the per-gem dependency summaries.
//
// Every operation is read-only. It checks out a single connection from its
// Source, runs one statement, and returns fully materialized values that hold
// no reference to the store. Ordering is part of each query, so repeated calls
// against unchanged data return identical results.
//
// Example usage:
//
//	st, err := store.New("gemindex.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	q := index.New(st)
//	names, err := q.Names(ctx)
package index

import (
	"context"
	"fmt"
	"log/slog"

	"go.trai.ch/zerr"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/store"
)

// ErrDataUnavailable wraps every failure of the underlying store. An empty
// result is never reported through it.
var ErrDataUnavailable = zerr.New("index data unavailable")

// Source hands out scoped connections. *store.Store implements it.
type Source interface {
	Conn(ctx context.Context) (*store.Conn, error)
}

// Query runs the index projections against a Source.
type Query struct {
	src      Source
	platform string
	logger   *slog.Logger
}

// Option configures a Query.
type Option func(*Query)

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithPlatform overrides the canonical platform (default "ruby").
func WithPlatform(platform string) Option {
	return func(q *Query) {
		if platform != "" {
			q.platform = platform
		}
	}
}

// New creates a Query over src.
func New(src Source, opts ...Option) *Query {
	q := &Query{
		src:      src,
		platform: gem.DefaultPlatform,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// withConn runs fn on one connection and releases it on every path.
func (q *Query) withConn(ctx context.Context, op string, fn func(*store.Conn) error) error {
	conn, err := q.src.Conn(ctx)
	if err != nil {
		return unavailable(op, err)
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return zerr.With(fmt.Errorf("%w: %w", ErrDataUnavailable, err), "op", op)
}

// Names returns every gem name in the store in ascending byte order,
// whether or not the gem has an indexed version.
func (q *Query) Names(ctx context.Context) ([]string, error) {
	names := []string{}

	err := q.withConn(ctx, "names", func(conn *store.Conn) error {
		query := `SELECT name FROM rubygems ORDER BY ` + conn.Dialect().Bytewise("name")

		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list names: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return fmt.Errorf("failed to scan name row: %w", err)
			}
			names = append(names, name)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating names: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}
