// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface using the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/internal/storage/sqldb"
)

// PostgreSQL error codes
const (
	uniqueViolationCode      = "23505"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	lockNotAvailableCode     = "55P03"
)

var dialect = sqldb.Dialect{
	Name:                 "postgres",
	NumberedPlaceholders: true,
	LockClause:           " FOR UPDATE",
	MapError:             MapError,
}

// New connects to dsn, runs migrations and returns a store.
func New(ctx context.Context, dsn string) (*sqldb.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := sqldb.Migrate(ctx, db, goose.DialectPostgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database connection established", "driver", "postgres")
	return sqldb.New(db, dialect), nil
}

// MapError maps pgx errors onto storage errors. Serialization failures,
// deadlocks and lock timeouts all mean another writer got to the group
// first and surface as storage.ErrConflict.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	case serializationFailureCode, deadlockDetectedCode, lockNotAvailableCode:
		return fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}
	return err
}
