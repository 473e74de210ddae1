package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	user = domain.Identity{UserID: "u1", Username: "ada", Token: "tok", Provider: "local"}
)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func sampleSnapshot() domain.Snapshot {
	modified := at(16, 0)
	snap := testutil.NewTestSnapshot(7.5,
		testutil.NewTestSession(domain.SessionWork, at(9, 0), testutil.WithSessionID("w1"),
			testutil.WithCheckOut(at(15, 1)), testutil.WithAutoLunch()),
		testutil.NewTestSession(domain.SessionLunch, at(15, 1), testutil.WithSessionID("l1"),
			testutil.WithCheckOut(at(15, 31)), testutil.WithManualEntry()),
		testutil.NewTestSession(domain.SessionWork, at(15, 31), testutil.WithSessionID("a1")),
	)
	snap.LastModified = &modified
	return snap
}

func assertSameSnapshot(t *testing.T, want, got domain.Snapshot) {
	t.Helper()
	require.Len(t, got.Sessions, len(want.Sessions))
	require.Len(t, got.ActiveSessions, len(want.ActiveSessions))
	for i := range want.Sessions {
		w, g := want.Sessions[i], got.Sessions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.True(t, w.CheckIn.Equal(g.CheckIn), "check-in of %s", w.ID)
		require.NotNil(t, g.CheckOut)
		assert.True(t, w.CheckOut.Equal(*g.CheckOut), "check-out of %s", w.ID)
		assert.Equal(t, w.Type, g.Type)
		assert.Equal(t, w.Duration, g.Duration)
		assert.Equal(t, w.HasAutoLunch, g.HasAutoLunch)
		assert.Equal(t, w.IsManualEntry, g.IsManualEntry)
		assert.False(t, g.IsActive)
	}
	for i := range want.ActiveSessions {
		assert.Equal(t, want.ActiveSessions[i].ID, got.ActiveSessions[i].ID)
		assert.True(t, got.ActiveSessions[i].IsActive)
		assert.Nil(t, got.ActiveSessions[i].CheckOut)
	}
	assert.Equal(t, want.CustomTargetHours, got.CustomTargetHours)
}

// memGateway is an in-memory Gateway with injectable failures.
type memGateway struct {
	mu      sync.Mutex
	docs    map[string]domain.Snapshot
	loadErr error
	saveErr error
	saves   int
}

func newMemGateway() *memGateway {
	return &memGateway{docs: make(map[string]domain.Snapshot)}
}

func (m *memGateway) Load(_ context.Context, id domain.Identity) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Snapshot{}, m.loadErr
	}
	snap, ok := m.docs[id.UserID]
	if !ok {
		return domain.Snapshot{}, ErrNotFound
	}
	return snap.Clone(), nil
}

func (m *memGateway) Save(_ context.Context, id domain.Identity, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[id.UserID] = snap.Clone()
	return nil
}

func TestCached_LoadPrefersRemoteAndRefreshesCache(t *testing.T) {
	local, remote := newMemGateway(), newMemGateway()
	remote.docs["u1"] = sampleSnapshot()

	c := NewCached(local, remote)
	snap, err := c.Load(context.Background(), user)
	require.NoError(t, err)
	assertSameSnapshot(t, sampleSnapshot(), snap)
	assert.Contains(t, local.docs, "u1")
}

func TestCached_LoadFallsBackWhenRemoteUnreachable(t *testing.T) {
	local, remote := newMemGateway(), newMemGateway()
	local.docs["u1"] = sampleSnapshot()
	remote.loadErr = errors.Join(ErrUnavailable, errors.New("dial tcp: refused"))

	var statuses []domain.SyncStatus
	c := NewCached(local, remote, WithStatusHook(func(_ domain.Identity, s domain.SyncStatus) { statuses = append(statuses, s) }))

	snap, err := c.Load(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, snap.Sessions, 2)
	assert.Equal(t, []domain.SyncStatus{domain.SyncOffline}, statuses)
}

func TestCached_LoadUnreachableWithoutCache(t *testing.T) {
	local, remote := newMemGateway(), newMemGateway()
	remote.loadErr = ErrUnavailable

	_, err := NewCached(local, remote).Load(context.Background(), user)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCached_LoadKeepsOfflineWorkWhenRemoteEmpty(t *testing.T) {
	local, remote := newMemGateway(), newMemGateway()
	local.docs["u1"] = sampleSnapshot()

	snap, err := NewCached(local, remote).Load(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, snap.ActiveSessions, 1)
}

func TestCached_LoadNotFoundAnywhere(t *testing.T) {
	_, err := NewCached(newMemGateway(), newMemGateway()).Load(context.Background(), user)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCached_LoadPropagatesPermanentErrors(t *testing.T) {
	local, remote := newMemGateway(), newMemGateway()
	local.docs["u1"] = sampleSnapshot()
	denied := errors.New("forbidden")
	remote.loadErr = denied

	_, err := NewCached(local, remote).Load(context.Background(), user)
	assert.ErrorIs(t, err, denied)
}

func TestCached_SaveWritesLocalFirst(t *testing.T) {
	local, remote := newMemGateway(), newMemGateway()
	remote.saveErr = ErrUnavailable

	err := NewCached(local, remote).Save(context.Background(), user, sampleSnapshot())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, local.docs, "u1", "local copy survives a remote failure")

	local.saveErr = errors.New("disk full")
	remote.saveErr = nil
	err = NewCached(local, remote).Save(context.Background(), user, sampleSnapshot())
	require.Error(t, err)
	assert.Zero(t, len(remote.docs), "remote is not written when the cache write fails")
}
