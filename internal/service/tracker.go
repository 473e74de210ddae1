package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/worktime/internal/app"
	"github.com/alexanderramin/worktime/internal/autosave"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/engine"
	"github.com/alexanderramin/worktime/internal/gateway"
	"github.com/alexanderramin/worktime/internal/repository"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

var ErrHistoryUnavailable = errors.New("session history is not available for this backend")

var (
	_ app.TodayUseCase   = (*Tracker)(nil)
	_ app.ExecuteUseCase = (*Tracker)(nil)
	_ app.HistoryUseCase = (*Tracker)(nil)
	_ app.SyncUseCase    = (*Tracker)(nil)
)

// HistorySource queries stored sessions. *gateway.Local satisfies it.
type HistorySource interface {
	History(ctx context.Context, id domain.Identity, f repository.SessionFilter) ([]domain.Session, error)
}

// TrackerConfig holds what every tracker of an installation shares.
type TrackerConfig struct {
	Gateway  gateway.Gateway
	History  HistorySource
	Statuses *StatusBoard
	Rules    domain.Rules
	Location *time.Location
	Autosave autosave.Config
	Clock    func() time.Time
	Logger   zerolog.Logger
	Observer UseCaseObserver
	// LoadBackOff builds the retry policy for transient load failures.
	LoadBackOff func() backoff.BackOff
}

func defaultLoadBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 250 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 4 * time.Second
	exp.MaxElapsedTime = 15 * time.Second
	return backoff.WithMaxRetries(exp, 4)
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	if c.Statuses == nil {
		c.Statuses = NewStatusBoard()
	}
	if c.Rules == (domain.Rules{}) {
		c.Rules = domain.DefaultRules()
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Observer == nil {
		c.Observer = NoopUseCaseObserver{}
	}
	if c.LoadBackOff == nil {
		c.LoadBackOff = defaultLoadBackOff
	}
	return c
}

// Tracker is the running account of one signed-in identity.
type Tracker struct {
	id       domain.Identity
	cfg      TrackerConfig
	eng      *engine.Engine
	worker   *autosave.Worker
	log      zerolog.Logger
	events   chan engine.Event
	closeMu  sync.Mutex
	isClosed bool

	dayMu sync.Mutex
	// day is the calendar day the last carry-over ran for.
	day string
}

// OpenTracker loads the identity's snapshot, retrying transient backend
// failures, restores it, closes sessions left open on earlier days and
// starts the autosave worker. A user without a saved document starts empty
// and an initial document is written.
func OpenTracker(ctx context.Context, id domain.Identity, cfg TrackerConfig) (t *Tracker, err error) {
	cfg = cfg.withDefaults()
	startedAt := time.Now()
	fields := map[string]any{"user_id": id.UserID}
	defer func() {
		cfg.Observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "open-tracker",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if cfg.Gateway == nil {
		return nil, errors.New("tracker: no gateway configured")
	}

	snap, fresh, err := loadSnapshot(ctx, cfg, id)
	if err != nil {
		return nil, err
	}
	fields["fresh"] = fresh

	t = &Tracker{
		id:     id,
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "tracker").Str("user_id", id.UserID).Logger(),
		events: make(chan engine.Event, 16),
		eng: engine.New(
			engine.WithRules(cfg.Rules),
			engine.WithLocation(cfg.Location),
			engine.WithClock(cfg.Clock),
		),
	}
	t.eng.Restore(snap)

	t.worker = autosave.Start(cfg.Gateway, id, t.eng, cfg.Autosave,
		autosave.WithLogger(cfg.Logger),
		autosave.WithStatus(func(s domain.SyncStatus, err error) {
			cfg.Statuses.Report(id.UserID, s, err)
		}),
	)
	t.eng.SetListener(engine.ListenerFunc(t.onEvent))

	fields["carried_over"] = t.rollOver(cfg.Clock())
	if fresh {
		t.worker.MarkDirty()
	}
	return t, nil
}

func loadSnapshot(ctx context.Context, cfg TrackerConfig, id domain.Identity) (domain.Snapshot, bool, error) {
	var snap domain.Snapshot
	fresh := false
	op := func() error {
		s, err := cfg.Gateway.Load(ctx, id)
		switch {
		case err == nil:
			snap = s
			return nil
		case errors.Is(err, gateway.ErrNotFound):
			fresh = true
			return nil
		case gateway.IsTransient(err):
			cfg.Logger.Warn().Err(err).Str("user_id", id.UserID).Msg("loading snapshot, retrying")
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	if err := backoff.Retry(op, backoff.WithContext(cfg.LoadBackOff(), ctx)); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, fresh, nil
}

func (t *Tracker) onEvent(ev engine.Event) {
	if _, ok := ev.(engine.StateChanged); ok {
		t.worker.MarkDirty()
	}
	if lunch, ok := ev.(engine.LunchThresholdCrossed); ok {
		t.log.Info().Str("session_id", lunch.SessionID).Msg("lunch deduction applied")
	}
	select {
	case t.events <- ev:
	default:
	}
}

func (t *Tracker) Identity() domain.Identity { return t.id }

// Events delivers engine events. Slow readers miss events rather than
// blocking mutations.
func (t *Tracker) Events() <-chan engine.Event { return t.events }

// Execute applies cmd. Every successful command schedules a save.
func (t *Tracker) Execute(ctx context.Context, cmd engine.Command) (res engine.Result, err error) {
	startedAt := time.Now()
	defer func() {
		t.cfg.Observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "execute",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"command": engine.CommandName(cmd), "user_id": t.id.UserID},
		})
	}()
	t.rollOver(t.cfg.Clock())
	return t.eng.Dispatch(cmd)
}

// rollOver closes sessions left open on an earlier day the first time the
// tracker is used on a new calendar day, and returns how many it closed.
// Trackers held by "serve" or "watch" outlive midnight.
func (t *Tracker) rollOver(now time.Time) int {
	key := now.In(t.cfg.Location).Format("2006-01-02")
	t.dayMu.Lock()
	defer t.dayMu.Unlock()
	if key == t.day {
		return 0
	}
	t.day = key
	moved := t.eng.CarryOverStaleActiveSessions(now)
	if len(moved) > 0 {
		t.log.Info().Int("sessions", len(moved)).Str("day", key).Msg("closed sessions left open on an earlier day")
	}
	return len(moved)
}

// Today computes the current aggregate. The only change it can make is the
// carry-over of stale sessions once the day has changed.
func (t *Tracker) Today(_ context.Context, req app.TodayRequest) (*app.TodayView, error) {
	t.rollOver(t.cfg.Clock())
	now := req.At(t.cfg.Clock())
	billing := t.eng.Billing(now)
	stats := t.eng.Statistics(now)

	active := make([]app.SessionView, 0)
	for _, h := range t.eng.ActiveHints(now) {
		active = append(active, app.NewActiveSessionView(h))
	}
	status, syncErr := t.cfg.Statuses.Get(t.id.UserID)

	return &app.TodayView{
		GeneratedAt:           now,
		Date:                  now.In(t.cfg.Location).Format("2006-01-02"),
		User:                  t.id.Label(),
		CurrentSessionSeconds: t.eng.CurrentSessionElapsed(now),
		TotalSeconds:          t.eng.TotalToday(now),
		RawWorkSeconds:        billing.RawWorkSeconds,
		LunchDeductedSeconds:  billing.LunchDeductedSeconds,
		BillableSeconds:       billing.BillableSeconds,
		CustomTargetHours:     t.eng.CustomTargetHours(),
		Countdown:             app.NewCountdownView(t.eng.Projection(now)),
		Statistics: app.StatisticsView{
			SessionCount:  stats.SessionCount,
			BreakCount:    stats.BreakCount,
			EfficiencyPct: stats.EfficiencyPct,
		},
		ActiveSessions: active,
		Sessions:       app.NewSessionViews(t.eng.SessionsOn(now)),
		SyncStatus:     status,
		SyncError:      syncErr,
	}, nil
}

// SyncNow saves the current state and waits for the result.
func (t *Tracker) SyncNow(ctx context.Context) (err error) {
	startedAt := time.Now()
	defer func() {
		t.cfg.Observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "sync-now",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"user_id": t.id.UserID},
		})
	}()
	return t.worker.Flush(ctx)
}

// History lists stored sessions matching req, oldest first. It reads the
// local store, which every backend writes through.
func (t *Tracker) History(ctx context.Context, req app.HistoryRequest) ([]domain.Session, error) {
	if t.cfg.History == nil {
		return nil, ErrHistoryUnavailable
	}
	t.rollOver(t.cfg.Clock())
	if err := t.worker.Flush(ctx); err != nil {
		t.log.Warn().Err(err).Msg("flushing before history query")
	}
	return t.cfg.History.History(ctx, t.id, repository.SessionFilter{
		From:       req.From,
		To:         req.To,
		Type:       req.Type,
		ManualOnly: req.ManualOnly,
		Limit:      req.Limit,
	})
}

// ActiveSessions lists open sessions ordered by check-in.
func (t *Tracker) ActiveSessions() []domain.Session {
	return t.eng.ActiveSessions()
}

func (t *Tracker) Location() *time.Location { return t.cfg.Location }

func (t *Tracker) Now() time.Time { return t.cfg.Clock() }

// Close flushes unsaved changes and stops the worker.
func (t *Tracker) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.isClosed {
		return nil
	}
	t.isClosed = true
	return t.worker.Close()
}
