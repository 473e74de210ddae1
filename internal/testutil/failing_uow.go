package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/worktime/internal/db"
	backoff "github.com/cenkalti/backoff/v4"
)

// FailingUoW runs transactions through the real unit of work and makes the
// FailOn-th statement executed inside one fail with Err, counted from 1.
// Reads pass through. A local snapshot save runs one exec for the account,
// one to clear the sessions and one per session row, so FailOn can cut a
// save off halfway.
type FailingUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	inner := db.NewSQLiteUnitOfWork(u.DB, db.WithBusyBackOff(func() backoff.BackOff {
		return &backoff.StopBackOff{}
	}))
	return inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingTx{DBTX: tx, failOn: u.FailOn, err: u.Err})
	})
}

type failingTx struct {
	db.DBTX
	execs  atomic.Int32
	failOn int32
	err    error
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.execs.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
