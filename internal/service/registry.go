package service

import (
	"context"
	"errors"
	"sync"

	"github.com/alexanderramin/worktime/internal/domain"
)

var ErrRegistryClosed = errors.New("tracker registry is closed")

// Registry keeps one open tracker per identity.
type Registry struct {
	cfg      TrackerConfig
	mu       sync.Mutex
	trackers map[string]*Tracker
	opening  map[string]*pendingOpen
	closed   bool
}

// pendingOpen lets concurrent callers for one identity share a single
// OpenTracker call.
type pendingOpen struct {
	done    chan struct{}
	tracker *Tracker
	err     error
}

func NewRegistry(cfg TrackerConfig) *Registry {
	return &Registry{
		cfg:      cfg.withDefaults(),
		trackers: make(map[string]*Tracker),
		opening:  make(map[string]*pendingOpen),
	}
}

// Get returns the identity's tracker, opening it on first use. Opening runs
// outside the registry lock, so a slow backend only delays callers for the
// same identity.
func (r *Registry) Get(ctx context.Context, id domain.Identity) (*Tracker, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if t, ok := r.trackers[id.UserID]; ok {
		r.mu.Unlock()
		return t, nil
	}
	if p, ok := r.opening[id.UserID]; ok {
		r.mu.Unlock()
		select {
		case <-p.done:
			return p.tracker, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p := &pendingOpen{done: make(chan struct{})}
	r.opening[id.UserID] = p
	r.mu.Unlock()

	t, err := OpenTracker(ctx, id, r.cfg)

	r.mu.Lock()
	delete(r.opening, id.UserID)
	if err == nil && r.closed {
		late := t
		defer func() { _ = late.Close() }()
		t, err = nil, ErrRegistryClosed
	}
	if err == nil {
		r.trackers[id.UserID] = t
	}
	r.mu.Unlock()

	p.tracker, p.err = t, err
	close(p.done)
	return t, err
}

// Release closes and forgets the identity's tracker.
func (r *Registry) Release(userID string) error {
	r.mu.Lock()
	t, ok := r.trackers[userID]
	delete(r.trackers, userID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	err := t.Close()
	r.cfg.Statuses.Forget(userID)
	return err
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Close flushes and closes every tracker. Trackers still opening are closed
// as soon as they finish.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	trackers := r.trackers
	r.trackers = make(map[string]*Tracker)
	r.mu.Unlock()

	var errs []error
	for _, t := range trackers {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
