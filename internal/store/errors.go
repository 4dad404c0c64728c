package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.trai.ch/zerr"
)

var (
	// ErrNotInitialized is returned when the schema has not been created yet.
	ErrNotInitialized = zerr.New("database not initialized: run 'gemindex import' or create the schema first")

	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = zerr.New("not found")
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// classify marks errors caused by a missing schema so callers can tell an
// uninitialized database apart from an unreachable one.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}
	return err
}
