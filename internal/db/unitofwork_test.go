package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/worktime/internal/db"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func settingExists(t *testing.T, uow *db.SQLiteUnitOfWork, key string) bool {
	t.Helper()
	var found bool
	require.NoError(t, uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE key = ?`, key).Scan(&n); err != nil {
			return err
		}
		found = n > 0
		return nil
	}))
	return found
}

func insertSetting(ctx context.Context, tx db.DBTX, key string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, 'v', '2026-03-10T09:00:00Z')`, key)
	return err
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertSetting(ctx, tx, "k1")
	})
	require.NoError(t, err)
	assert.True(t, settingExists(t, uow, "k1"))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openUoW(t)
	boom := errors.New("deliberate failure")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertSetting(ctx, tx, "k2"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, settingExists(t, uow, "k2"))
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertSetting(ctx, tx, "k3")
			panic("boom")
		})
	})
	assert.False(t, settingExists(t, uow, "k3"))
}

func TestWithinTx_RetriesBusyTransaction(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	uow := db.NewSQLiteUnitOfWork(database, db.WithBusyBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	}))

	attempts := 0
	err = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		attempts++
		if err := insertSetting(ctx, tx, "k4"); err != nil {
			return err
		}
		if attempts < 3 {
			return fmt.Errorf("saving: %w", db.ErrBusy)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, settingExists(t, uow, "k4"))
}

func TestWithinTx_GivesUpWhenStillBusy(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	uow := db.NewSQLiteUnitOfWork(database, db.WithBusyBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}))

	attempts := 0
	err = uow.WithinTx(context.Background(), func(context.Context, db.DBTX) error {
		attempts++
		return db.ErrBusy
	})
	require.ErrorIs(t, err, db.ErrBusy)
	assert.Equal(t, 3, attempts)
}

func TestWithinTx_DoesNotRetryOtherErrors(t *testing.T) {
	uow := openUoW(t)
	attempts := 0
	err := uow.WithinTx(context.Background(), func(context.Context, db.DBTX) error {
		attempts++
		return errors.New("constraint failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, db.IsBusy(fmt.Errorf("wrapped: %w", db.ErrBusy)))
	assert.False(t, db.IsBusy(errors.New("other")))
	assert.False(t, db.IsBusy(nil))
}
