package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepo_UpsertAndGet(t *testing.T) {
	repo := NewSQLiteAccountRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	modified := at(12, 0)
	require.NoError(t, repo.Upsert(ctx, &AccountMeta{UserID: "u1", CustomTargetHours: 8, LastModified: &modified}))
	require.NoError(t, repo.Upsert(ctx, &AccountMeta{UserID: "u1", CustomTargetHours: 7.5, LastModified: &modified}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, got.CustomTargetHours)
	require.NotNil(t, got.LastModified)
	assert.True(t, modified.Equal(*got.LastModified))
}

func TestAccountRepo_DeleteCascades(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	accounts := NewSQLiteAccountRepo(database)
	sessions := NewSQLiteSessionRepo(database)

	require.NoError(t, accounts.Upsert(ctx, &AccountMeta{UserID: "u1"}))
	require.NoError(t, sessions.ReplaceAll(ctx, "u1", []domain.Session{
		testutil.NewTestSession(domain.SessionWork, at(9, 0)),
	}))

	require.NoError(t, accounts.Delete(ctx, "u1"))
	got, err := sessions.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
