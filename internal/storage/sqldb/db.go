// Package sqldb implements storage.Store on database/sql.
//
// The SQL is written once with "?" placeholders; a Dialect rebinds it for
// the target database, supplies the row-lock clause used to serialize
// writers of one group, and maps driver errors to storage errors.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmynk/groupledger/internal/storage"
)

// Ensure DB implements storage.Store
var _ storage.Store = (*DB)(nil)

// Dialect captures the differences between supported databases.
type Dialect struct {
	// Name is used in log lines.
	Name string

	// NumberedPlaceholders rewrites "?" as "$1", "$2", ...
	NumberedPlaceholders bool

	// LockClause is appended to the group version read in LockGroup,
	// e.g. " FOR UPDATE". SQLite leaves it empty and relies on
	// IMMEDIATE transactions instead.
	LockClause string

	// MapError translates driver errors into storage errors. It may
	// return err unchanged.
	MapError func(err error) error
}

func (d *Dialect) rebind(query string) string {
	if !d.NumberedPlaceholders {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *Dialect) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	if d.MapError != nil {
		return d.MapError(err)
	}
	return err
}

// DB is a storage.Store backed by a *sql.DB.
type DB struct {
	db      *sql.DB
	dialect *Dialect
}

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: &dialect}
}

// SQL exposes the underlying handle for health checks.
func (s *DB) SQL() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// RunInTx executes fn within a database transaction.
// The transaction is committed if fn returns nil and rolled back otherwise.
// A panic inside fn rolls back and re-panics.
func (s *DB) RunInTx(ctx context.Context, fn storage.TxFn) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", s.dialect.mapErr(err))
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				slog.Error("Failed to roll back transaction after panic", "error", rbErr, "panic", p)
			}
			panic(p)
		}
	}()

	if err := fn(ctx, &tx{tx: sqlTx, d: s.dialect}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("Failed to roll back transaction",
				"dialect", s.dialect.Name,
				"rollback_error", rbErr,
				"error", err,
			)
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		slog.Debug("Rolled back transaction", "dialect", s.dialect.Name, "error", err)
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", s.dialect.mapErr(err))
	}
	return nil
}

// tx implements storage.Tx on a *sql.Tx.
type tx struct {
	tx *sql.Tx
	d  *Dialect
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, t.d.rebind(query), args...)
	return res, t.d.mapErr(err)
}

func (t *tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, t.d.rebind(query), args...)
	return rows, t.d.mapErr(err)
}

func (t *tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.rebind(query), args...)
}

// rowsAffected returns storage.ErrNotFound when res touched no rows.
func rowsAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, entity)
	}
	return nil
}

// nullString stores "" as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
