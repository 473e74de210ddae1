package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/worktime/internal/app"
	"github.com/alexanderramin/worktime/internal/autosave"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/engine"
	"github.com/alexanderramin/worktime/internal/gateway"
	"github.com/alexanderramin/worktime/internal/testutil"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	user = domain.Identity{UserID: "u1", Username: "ada@example.com", DisplayName: "Ada"}
)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

// flakyGateway fails the first failures loads with err.
type flakyGateway struct {
	gateway.Gateway
	mu       sync.Mutex
	failures int
	err      error
	loads    int
}

func (f *flakyGateway) Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error) {
	f.mu.Lock()
	f.loads++
	fail := f.loads <= f.failures
	f.mu.Unlock()
	if fail {
		return domain.Snapshot{}, f.err
	}
	return f.Gateway.Load(ctx, id)
}

func newLocalGateway(t *testing.T) *gateway.Local {
	t.Helper()
	database := testutil.NewTestDB(t)
	return gateway.NewLocal(database, testutil.NewTestUoW(database))
}

func testConfig(gw gateway.Gateway, local *gateway.Local, now time.Time) TrackerConfig {
	return TrackerConfig{
		Gateway:     gw,
		History:     local,
		Location:    time.UTC,
		Clock:       func() time.Time { return now },
		Autosave:    autosave.Config{Debounce: time.Hour, ActiveInterval: time.Hour, IdleInterval: time.Hour},
		LoadBackOff: func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3) },
	}
}

func openTestTracker(t *testing.T, cfg TrackerConfig) *Tracker {
	t.Helper()
	tr, err := OpenTracker(context.Background(), user, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestOpenTracker_NewUserStartsEmptyAndSavesInitialDocument(t *testing.T) {
	local := newLocalGateway(t)
	tr, err := OpenTracker(context.Background(), user, testConfig(local, local, at(10, 0)))
	require.NoError(t, err)

	view, err := tr.Today(context.Background(), app.NewTodayRequest())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", view.Date)
	assert.Equal(t, "Ada", view.User)
	assert.Empty(t, view.Sessions)
	assert.Empty(t, view.ActiveSessions)
	assert.False(t, view.Countdown.Visible)
	assert.Equal(t, 100, view.Statistics.EfficiencyPct)

	require.NoError(t, tr.Close())
	_, err = local.Load(context.Background(), user)
	assert.NoError(t, err, "closing writes the initial document")
}

func TestOpenTracker_CarriesOverYesterdaysActiveSessions(t *testing.T) {
	local := newLocalGateway(t)
	yesterday := at(9, 0).AddDate(0, 0, -1)
	require.NoError(t, local.Save(context.Background(), user, testutil.NewTestSnapshot(0,
		testutil.NewTestSession(domain.SessionWork, yesterday, testutil.WithSessionID("old")),
	)))

	tr := openTestTracker(t, testConfig(local, local, at(8, 0)))
	assert.Empty(t, tr.ActiveSessions())

	history, err := tr.History(context.Background(), app.HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].CheckOut)
	assert.Equal(t, time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC), history[0].CheckOut.UTC())
	assert.True(t, history[0].HasAutoLunch, "a carried-over day exceeds the lunch threshold")
}

func TestTracker_TodayWhileWorking(t *testing.T) {
	local := newLocalGateway(t)
	tr := openTestTracker(t, testConfig(local, local, at(13, 30)))
	ctx := context.Background()

	_, err := tr.Execute(ctx, engine.StartSession{Type: domain.SessionWork, At: at(9, 0)})
	require.NoError(t, err)

	view, err := tr.Today(ctx, app.NewTodayRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(16200), view.CurrentSessionSeconds)
	assert.Equal(t, int64(16200), view.BillableSeconds)
	assert.Equal(t, int64(1800), view.Countdown.LunchBuffer)
	assert.Equal(t, int64(36000-16200+1800), view.Countdown.RemainingAdjusted)
	require.NotNil(t, view.Countdown.ProjectedClockOut)
	assert.Equal(t, at(19, 30), *view.Countdown.ProjectedClockOut)
	require.Len(t, view.ActiveSessions, 1)
	assert.False(t, view.ActiveSessions[0].LunchPending)

	later := at(14, 30)
	view, err = tr.Today(ctx, app.TodayRequest{Now: &later})
	require.NoError(t, err)
	assert.True(t, view.HasLunchPending())
	assert.Equal(t, int64(5*3600+30*60-1800), view.BillableSeconds)
}

func TestTracker_ExecuteAndSync(t *testing.T) {
	local := newLocalGateway(t)
	board := NewStatusBoard()
	cfg := testConfig(local, local, at(16, 0))
	cfg.Statuses = board
	tr := openTestTracker(t, cfg)
	ctx := context.Background()

	started, err := tr.Execute(ctx, engine.StartSession{Type: domain.SessionWork, At: at(9, 0)})
	require.NoError(t, err)
	res, err := tr.Execute(ctx, engine.CompleteSession{ID: started.Sessions[0].ID, At: at(15, 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(21660), res.Sessions[0].Duration)

	require.NoError(t, tr.SyncNow(ctx))
	status, syncErr := board.Get(user.UserID)
	assert.Equal(t, domain.SyncSynced, status)
	assert.Empty(t, syncErr)

	saved, err := local.Load(ctx, user)
	require.NoError(t, err)
	require.Len(t, saved.Sessions, 1)
	assert.True(t, saved.Sessions[0].HasAutoLunch)

	view, err := tr.Today(ctx, app.NewTodayRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(19860), view.BillableSeconds)
	assert.Equal(t, domain.SyncSynced, view.SyncStatus)
}

func TestTracker_LunchEventDelivered(t *testing.T) {
	local := newLocalGateway(t)
	tr := openTestTracker(t, testConfig(local, local, at(16, 0)))
	ctx := context.Background()

	hours := 6.0
	_, err := tr.Execute(ctx, engine.ManualNewSession{Type: domain.SessionWork, CheckIn: at(8, 0), DurationHours: &hours})
	require.NoError(t, err)

	var got []engine.Event
	for len(tr.Events()) > 0 {
		got = append(got, <-tr.Events())
	}
	require.NotEmpty(t, got)
	assert.IsType(t, engine.LunchThresholdCrossed{}, got[0])
}

func TestTracker_ExecuteRejectsInvalidCommands(t *testing.T) {
	local := newLocalGateway(t)
	tr := openTestTracker(t, testConfig(local, local, at(16, 0)))

	_, err := tr.Execute(context.Background(), engine.CompleteSession{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = tr.Execute(context.Background(), engine.SetCustomTarget{Hours: 30})
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestTracker_HistoryFilters(t *testing.T) {
	local := newLocalGateway(t)
	tr := openTestTracker(t, testConfig(local, local, at(18, 0)))
	ctx := context.Background()

	for _, c := range []engine.Command{
		engine.StartSession{Type: domain.SessionWork, At: at(9, 0)},
		engine.CompleteAll{At: at(12, 0)},
		engine.StartSession{Type: domain.SessionLunch, At: at(12, 0)},
		engine.CompleteAll{At: at(12, 30)},
	} {
		_, err := tr.Execute(ctx, c)
		require.NoError(t, err)
	}

	lunches, err := tr.History(ctx, app.HistoryRequest{Type: domain.SessionLunch})
	require.NoError(t, err)
	require.Len(t, lunches, 1)
	assert.Equal(t, int64(1800), lunches[0].Duration)

	from := at(10, 0)
	after, err := tr.History(ctx, app.HistoryRequest{From: &from})
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestTracker_HistoryUnavailableWithoutLocalStore(t *testing.T) {
	local := newLocalGateway(t)
	cfg := testConfig(local, nil, at(9, 0))
	cfg.History = nil
	tr := openTestTracker(t, cfg)

	_, err := tr.History(context.Background(), app.HistoryRequest{})
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}

func TestOpenTracker_RetriesTransientLoadFailures(t *testing.T) {
	local := newLocalGateway(t)
	require.NoError(t, local.Save(context.Background(), user, testutil.NewTestSnapshot(7)))
	flaky := &flakyGateway{Gateway: local, failures: 2, err: fmt.Errorf("parse: %w", gateway.ErrUnavailable)}

	tr := openTestTracker(t, testConfig(flaky, local, at(9, 0)))
	view, err := tr.Today(context.Background(), app.NewTodayRequest())
	require.NoError(t, err)
	assert.Equal(t, 7.0, view.CustomTargetHours)
	assert.Equal(t, 3, flaky.loads)
}

func TestOpenTracker_GivesUp(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLoads int
	}{
		{"permanent error is not retried", errors.New("corrupt document"), 1},
		{"transient error exhausts retries", gateway.ErrUnavailable, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newLocalGateway(t)
			flaky := &flakyGateway{Gateway: local, failures: 100, err: tt.err}

			_, err := OpenTracker(context.Background(), user, testConfig(flaky, local, at(9, 0)))
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantLoads, flaky.loads)
		})
	}
}

func TestRegistry_OpensOncePerIdentity(t *testing.T) {
	local := newLocalGateway(t)
	reg := NewRegistry(testConfig(local, local, at(9, 0)))
	ctx := context.Background()

	a, err := reg.Get(ctx, user)
	require.NoError(t, err)
	b, err := reg.Get(ctx, user)
	require.NoError(t, err)
	assert.Same(t, a, b)

	other, err := reg.Get(ctx, domain.Identity{UserID: "u2"})
	require.NoError(t, err)
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, reg.Len())

	_, err = a.Execute(ctx, engine.StartSession{Type: domain.SessionWork})
	require.NoError(t, err)
	require.NoError(t, reg.Release(user.UserID))
	assert.Equal(t, 1, reg.Len())

	saved, err := local.Load(ctx, user)
	require.NoError(t, err)
	assert.Len(t, saved.ActiveSessions, 1, "release flushes pending changes")

	require.NoError(t, reg.Close())
	assert.Equal(t, 0, reg.Len())
}

// movableClock is a test clock that can be moved across midnight.
type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func TestRegistry_CarriesOverAcrossMidnight(t *testing.T) {
	local := newLocalGateway(t)
	clock := &movableClock{now: at(9, 0)}
	cfg := testConfig(local, local, at(9, 0))
	cfg.Clock = clock.Now
	reg := NewRegistry(cfg)
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	tr, err := reg.Get(ctx, user)
	require.NoError(t, err)
	_, err = tr.Execute(ctx, engine.StartSession{Type: domain.SessionWork, At: at(9, 0)})
	require.NoError(t, err)

	clock.Set(at(11, 0).AddDate(0, 0, 1))
	same, err := reg.Get(ctx, user)
	require.NoError(t, err)
	require.Same(t, tr, same)

	view, err := same.Today(ctx, app.NewTodayRequest())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", view.Date)
	assert.Empty(t, view.ActiveSessions)
	assert.Zero(t, view.CurrentSessionSeconds)
	assert.Zero(t, view.RawWorkSeconds)

	history, err := same.History(ctx, app.HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].CheckOut)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), history[0].CheckOut.UTC())
}

func TestTracker_ExecuteClosesYesterdayBeforeApplying(t *testing.T) {
	local := newLocalGateway(t)
	clock := &movableClock{now: at(9, 0)}
	cfg := testConfig(local, local, at(9, 0))
	cfg.Clock = clock.Now
	tr := openTestTracker(t, cfg)
	ctx := context.Background()

	_, err := tr.Execute(ctx, engine.StartSession{Type: domain.SessionWork, At: at(9, 0)})
	require.NoError(t, err)

	tomorrow := at(8, 0).AddDate(0, 0, 1)
	clock.Set(tomorrow)
	_, err = tr.Execute(ctx, engine.StartSession{Type: domain.SessionWork, At: tomorrow})
	require.NoError(t, err)

	active := tr.ActiveSessions()
	require.Len(t, active, 1)
	assert.Equal(t, tomorrow, active[0].CheckIn.UTC())
}

// blockingGateway holds loads for the "slow" identity until release is
// closed.
type blockingGateway struct {
	gateway.Gateway
	started chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	loads   int
}

func (g *blockingGateway) Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error) {
	if id.UserID == "slow" {
		g.mu.Lock()
		g.loads++
		g.mu.Unlock()
		g.once.Do(func() { close(g.started) })
		<-g.release
	}
	return g.Gateway.Load(ctx, id)
}

func (g *blockingGateway) slowLoads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loads
}

func TestRegistry_SlowOpenDoesNotBlockOtherIdentities(t *testing.T) {
	local := newLocalGateway(t)
	gw := &blockingGateway{Gateway: local, started: make(chan struct{}), release: make(chan struct{})}
	reg := NewRegistry(testConfig(gw, local, at(9, 0)))
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()
	slow := domain.Identity{UserID: "slow"}

	type opened struct {
		tracker *Tracker
		err     error
	}
	results := make(chan opened, 2)
	for i := 0; i < 2; i++ {
		go func() {
			tr, err := reg.Get(ctx, slow)
			results <- opened{tr, err}
		}()
	}
	<-gw.started

	fast := make(chan error, 1)
	go func() {
		_, err := reg.Get(ctx, user)
		fast <- err
	}()
	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("opening one identity waited on another identity's load")
	}

	close(gw.release)
	first, second := <-results, <-results
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Same(t, first.tracker, second.tracker)
	assert.Equal(t, 1, gw.slowLoads())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_GetAfterClose(t *testing.T) {
	local := newLocalGateway(t)
	reg := NewRegistry(testConfig(local, local, at(9, 0)))
	require.NoError(t, reg.Close())

	_, err := reg.Get(context.Background(), user)
	assert.ErrorIs(t, err, ErrRegistryClosed)
	assert.Zero(t, reg.Len())
}

func TestStatusBoard(t *testing.T) {
	b := NewStatusBoard()
	status, msg := b.Get("u1")
	assert.Equal(t, domain.SyncIdle, status)
	assert.Empty(t, msg)

	b.Report("u1", domain.SyncOffline, errors.New("dial tcp: refused"))
	status, msg = b.Get("u1")
	assert.Equal(t, domain.SyncOffline, status)
	assert.Equal(t, "dial tcp: refused", msg)

	b.ReportIdentity(user, domain.SyncSynced)
	status, msg = b.Get("u1")
	assert.Equal(t, domain.SyncSynced, status)
	assert.Empty(t, msg)

	b.Forget("u1")
	status, _ = b.Get("u1")
	assert.Equal(t, domain.SyncIdle, status)
}
