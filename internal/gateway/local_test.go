package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/worktime/internal/db"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/repository"
	"github.com/alexanderramin/worktime/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveAndLoad(t *testing.T) {
	database := testutil.NewTestDB(t)
	g := NewLocal(database, db.NewSQLiteUnitOfWork(database))
	ctx := context.Background()

	_, err := g.Load(ctx, user)
	require.ErrorIs(t, err, ErrNotFound)

	want := sampleSnapshot()
	require.NoError(t, g.Save(ctx, user, want))

	got, err := g.Load(ctx, user)
	require.NoError(t, err)
	assertSameSnapshot(t, want, got)
	require.NotNil(t, got.LastModified)
	assert.True(t, want.LastModified.Equal(*got.LastModified))
}

func TestLocal_SaveIsIdempotent(t *testing.T) {
	database := testutil.NewTestDB(t)
	g := NewLocal(database, db.NewSQLiteUnitOfWork(database))
	ctx := context.Background()

	snap := sampleSnapshot()
	require.NoError(t, g.Save(ctx, user, snap))
	require.NoError(t, g.Save(ctx, user, snap))

	got, err := g.Load(ctx, user)
	require.NoError(t, err)
	assertSameSnapshot(t, snap, got)
}

func TestLocal_SnapshotSurvivesReopen(t *testing.T) {
	database, path := testutil.NewFileTestDB(t)
	ctx := context.Background()
	want := sampleSnapshot()
	require.NoError(t, NewLocal(database, testutil.NewTestUoW(database)).Save(ctx, user, want))
	require.NoError(t, database.Close())

	reopened, err := db.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := NewLocal(reopened, testutil.NewTestUoW(reopened)).Load(ctx, user)
	require.NoError(t, err)
	assertSameSnapshot(t, want, got)
}

func TestLocal_SaveRollsBackOnFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	good := NewLocal(database, db.NewSQLiteUnitOfWork(database))
	require.NoError(t, good.Save(ctx, user, sampleSnapshot()))

	// exec 1 upserts the account, 2 clears sessions, 3.. insert rows
	boom := errors.New("injected failure")
	failing := NewLocal(database, &testutil.FailingUoW{DB: database, FailOn: 4, Err: boom})
	err := failing.Save(ctx, user, domain.Snapshot{
		Sessions: []domain.Session{
			testutil.NewTestSession(domain.SessionWork, at(8, 0), testutil.WithCheckOut(at(9, 0))),
			testutil.NewTestSession(domain.SessionWork, at(10, 0), testutil.WithCheckOut(at(11, 0))),
		},
	})
	require.ErrorIs(t, err, boom)

	got, err := good.Load(ctx, user)
	require.NoError(t, err)
	assertSameSnapshot(t, sampleSnapshot(), got)
}

func TestLocal_History(t *testing.T) {
	database := testutil.NewTestDB(t)
	g := NewLocal(database, db.NewSQLiteUnitOfWork(database))
	ctx := context.Background()
	require.NoError(t, g.Save(ctx, user, sampleSnapshot()))

	lunches, err := g.History(ctx, user, repository.SessionFilter{UserID: "someone-else", Type: domain.SessionLunch})
	require.NoError(t, err)
	require.Len(t, lunches, 1)
	assert.Equal(t, "l1", lunches[0].ID)
}
