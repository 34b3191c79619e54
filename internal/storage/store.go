// Package storage persists every marketplace entity behind one Store type.
// Queries are written once with ? placeholders and rebound per driver, so
// the embedded sqlite backend and the networked postgres backend share all
// business-facing code paths.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenPostgres connects to a networked postgres store.
func OpenPostgres(dsn string, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Open(driverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, timeout: timeout}, nil
}

// OpenSQLite opens the embedded single-file store. A single connection
// serializes writers, which keeps transactions free of SQLITE_BUSY errors.
func OpenSQLite(path string, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Open(driverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db, timeout: timeout}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate applies the dialect-appropriate schema. Idempotent.
func (s *Store) Migrate() error {
	schema := sqliteSchema
	if s.db.DriverName() == driverPostgres {
		schema = postgresSchema
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// opCtx bounds a single store operation; a blown deadline surfaces to the
// caller as Unavailable via mapErr.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fault.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fault.Wrap(fault.ErrUnavailable, "store: %v", err)
	default:
		return fmt.Errorf("store: %w", err)
	}
}

// Tx scopes a single atomic unit of work. Every lifecycle transition
// re-reads its rows through one of these so preconditions hold at commit.
type Tx struct {
	tx *sqlx.Tx
}

// InTx runs fn inside one transaction with the store timeout applied to the
// whole unit. Rollback on any error, no partial side effects.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	if err := fn(ctx, &Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

// insertID runs an INSERT written without a RETURNING clause and yields the
// new row id on either backend. Postgres has no LastInsertId, sqlite builds
// without RETURNING support are still common, so the dialect split lives
// here and nowhere else.
func insertID(ctx context.Context, e sqlx.ExtContext, q string, args ...any) (int64, error) {
	if e.DriverName() == driverPostgres {
		var id int64
		if err := sqlx.GetContext(ctx, e, &id, e.Rebind(q+" RETURNING id"), args...); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := e.ExecContext(ctx, e.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// forUpdate appends a row lock on postgres; the sqlite backend serializes
// on its single connection instead.
func forUpdate(e sqlx.ExtContext, q string) string {
	if e.DriverName() == driverPostgres {
		return q + " FOR UPDATE"
	}
	return q
}
