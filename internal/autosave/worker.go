// Package autosave serializes every snapshot write for one identity
// through a single goroutine.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/gateway"
	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("autosave worker closed")

// Source is the state being saved. *engine.Engine satisfies it.
type Source interface {
	Snapshot() domain.Snapshot
	HasActive() bool
}

type Config struct {
	// Debounce is the quiet period after the last change before a save.
	Debounce time.Duration
	// ActiveInterval applies while sessions are open or changes are unsaved.
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	SaveTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Debounce:       2 * time.Second,
		ActiveInterval: 30 * time.Second,
		IdleInterval:   5 * time.Minute,
		SaveTimeout:    15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.ActiveInterval <= 0 {
		c.ActiveInterval = d.ActiveInterval
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = d.IdleInterval
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = d.SaveTimeout
	}
	return c
}

// StatusFunc observes sync status transitions. err is set for SyncError
// and SyncOffline.
type StatusFunc func(status domain.SyncStatus, err error)

type Option func(*Worker)

func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) { w.log = l }
}

func WithStatus(fn StatusFunc) Option {
	return func(w *Worker) {
		if fn != nil {
			w.status = fn
		}
	}
}

type flushRequest struct {
	ctx  context.Context
	done chan error
}

type Worker struct {
	cfg    Config
	gw     gateway.Gateway
	id     domain.Identity
	src    Source
	log    zerolog.Logger
	status StatusFunc

	dirtyCh chan struct{}
	flushCh chan flushRequest
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	closeErr  error

	// owned by run
	dirty bool
}

// Start launches the worker goroutine for id.
func Start(gw gateway.Gateway, id domain.Identity, src Source, cfg Config, opts ...Option) *Worker {
	w := &Worker{
		cfg:     cfg.withDefaults(),
		gw:      gw,
		id:      id,
		src:     src,
		log:     zerolog.Nop(),
		status:  func(domain.SyncStatus, error) {},
		dirtyCh: make(chan struct{}, 1),
		flushCh: make(chan flushRequest),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With().Str("component", "autosave").Str("user_id", id.UserID).Logger()
	go w.run()
	return w
}

// MarkDirty records that the state changed. It never blocks.
func (w *Worker) MarkDirty() {
	select {
	case <-w.done:
	case w.dirtyCh <- struct{}{}:
	default:
	}
}

// Flush saves the current state now and waits for the result.
func (w *Worker) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := flushRequest{ctx: ctx, done: make(chan error, 1)}
	select {
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case w.flushCh <- req:
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after a final save of unsaved changes and returns
// that save's error. It is idempotent.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		<-w.stopped
	})
	return w.closeErr
}

func (w *Worker) run() {
	defer close(w.stopped)

	var debounce *time.Timer
	var debounceC <-chan time.Time
	periodic := time.NewTimer(w.interval())
	defer periodic.Stop()

	for {
		select {
		case <-w.dirtyCh:
			w.setDirty(true)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.cfg.Debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			w.scheduledFlush("debounce")

		case <-periodic.C:
			w.scheduledFlush("periodic")
			periodic.Reset(w.interval())

		case req := <-w.flushCh:
			req.done <- w.flush(req.ctx, "manual")

		case <-w.done:
			if debounce != nil {
				debounce.Stop()
			}
			w.drainDirty()
			if w.dirty {
				w.closeErr = w.scheduledFlush("shutdown")
			}
			// Nothing retries after shutdown.
			w.setDirty(false)
			return
		}
	}
}

func (w *Worker) drainDirty() {
	select {
	case <-w.dirtyCh:
		w.setDirty(true)
	default:
	}
}

func (w *Worker) interval() time.Duration {
	if w.dirty || w.src.HasActive() {
		return w.cfg.ActiveInterval
	}
	return w.cfg.IdleInterval
}

func (w *Worker) setDirty(d bool) {
	if w.dirty == d {
		return
	}
	w.dirty = d
	if d {
		dirtyGauge.Inc()
	} else {
		dirtyGauge.Dec()
	}
}

func (w *Worker) scheduledFlush(reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.SaveTimeout)
	defer cancel()
	return w.flush(ctx, reason)
}

// flush saves one snapshot. A failure keeps the state dirty so the next
// scheduled flush retries it.
func (w *Worker) flush(ctx context.Context, reason string) error {
	w.status(domain.SyncSyncing, nil)
	start := time.Now()
	err := w.gw.Save(ctx, w.id, w.src.Snapshot())
	flushDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		flushesTotal.WithLabelValues(resultOK).Inc()
		w.setDirty(false)
		w.status(domain.SyncSynced, nil)
		w.log.Debug().Str("reason", reason).Msg("snapshot saved")
	case gateway.IsTransient(err):
		flushesTotal.WithLabelValues(resultOffline).Inc()
		w.status(domain.SyncOffline, err)
		w.log.Warn().Err(err).Str("reason", reason).Msg("backend unreachable, will retry")
	default:
		flushesTotal.WithLabelValues(resultError).Inc()
		w.status(domain.SyncError, err)
		w.log.Error().Err(err).Str("reason", reason).Msg("saving snapshot failed")
	}
	return err
}
