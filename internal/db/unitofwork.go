package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a unit of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// ErrBusy marks a transaction that lost the write lock to another process.
var ErrBusy = errors.New("database is busy")

// IsBusy reports whether err means another connection held the write lock.
// The CLI and a running "serve" share one database file, and a deferred
// transaction that upgrades to a write fails with SQLITE_BUSY without
// waiting for busy_timeout.
func IsBusy(err error) bool {
	if errors.Is(err, ErrBusy) {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

// UnitOfWork scopes a group of repository writes to one transaction. A
// snapshot save replaces every session row of an account, so it must never
// be visible half-written.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork runs fn in a database/sql transaction and reruns the
// whole transaction when it fails on a busy database.
type SQLiteUnitOfWork struct {
	db          *sql.DB
	busyBackOff func() backoff.BackOff
}

type UnitOfWorkOption func(*SQLiteUnitOfWork)

// WithBusyBackOff replaces the retry policy for busy transactions.
func WithBusyBackOff(fn func() backoff.BackOff) UnitOfWorkOption {
	return func(u *SQLiteUnitOfWork) {
		if fn != nil {
			u.busyBackOff = fn
		}
	}
}

func defaultBusyBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 5)
}

func NewSQLiteUnitOfWork(db *sql.DB, opts ...UnitOfWorkOption) *SQLiteUnitOfWork {
	u := &SQLiteUnitOfWork{db: db, busyBackOff: defaultBusyBackOff}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	op := func() error {
		err := u.runTx(ctx, fn)
		if err != nil && !IsBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(u.busyBackOff(), ctx))
}

func (u *SQLiteUnitOfWork) runTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
