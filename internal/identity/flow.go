package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
)

// DefaultAuthGuard bounds how long one sign-in attempt may stay in flight.
const DefaultAuthGuard = 15 * time.Second

var ErrAuthInProgress = errors.New("another sign-in attempt is in progress")

// Attempt identifies one Begin call; results for superseded attempts are
// ignored.
type Attempt uint64

// Flow tracks the authentication state machine
// Unauthenticated -> Authenticating -> Authenticated | AuthFailed.
// An attempt older than the guard counts as abandoned and the flow reads
// as Unauthenticated again.
type Flow struct {
	mu        sync.Mutex
	state     domain.AuthState
	attempt   Attempt
	startedAt time.Time
	lastErr   error
	guard     time.Duration
	now       func() time.Time
}

func NewFlow(guard time.Duration, now func() time.Time) *Flow {
	if guard <= 0 {
		guard = DefaultAuthGuard
	}
	if now == nil {
		now = time.Now
	}
	return &Flow{state: domain.AuthUnauthenticated, guard: guard, now: now}
}

func (f *Flow) State() domain.AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLocked()
	return f.state
}

// LastError returns the error that moved the flow to AuthFailed.
func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Flow) expireLocked() {
	if f.state == domain.AuthAuthenticating && f.now().Sub(f.startedAt) >= f.guard {
		f.state = domain.AuthUnauthenticated
		f.attempt++
	}
}

// Begin starts an attempt unless a fresh one is already running.
func (f *Flow) Begin() (Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLocked()
	if f.state == domain.AuthAuthenticating {
		return 0, ErrAuthInProgress
	}
	f.attempt++
	f.state = domain.AuthAuthenticating
	f.startedAt = f.now()
	f.lastErr = nil
	return f.attempt, nil
}

// Succeed reports whether the result was accepted.
func (f *Flow) Succeed(a Attempt) bool {
	return f.finish(a, domain.AuthAuthenticated, nil)
}

func (f *Flow) Fail(a Attempt, err error) bool {
	return f.finish(a, domain.AuthFailed, err)
}

func (f *Flow) finish(a Attempt, to domain.AuthState, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLocked()
	if a != f.attempt || f.state != domain.AuthAuthenticating {
		return false
	}
	f.state = to
	f.lastErr = err
	return true
}

// Restore marks a previously stored identity as signed in.
func (f *Flow) Restore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempt++
	f.state = domain.AuthAuthenticated
	f.lastErr = nil
}

func (f *Flow) SignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempt++
	f.state = domain.AuthUnauthenticated
	f.lastErr = nil
}

// Run wraps fn in one attempt bounded by the guard.
func (f *Flow) Run(ctx context.Context, fn func(context.Context) (domain.Identity, error)) (domain.Identity, error) {
	a, err := f.Begin()
	if err != nil {
		return domain.Identity{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, f.guard)
	defer cancel()

	id, err := fn(ctx)
	if err != nil {
		f.Fail(a, err)
		return domain.Identity{}, err
	}
	if !f.Succeed(a) {
		return domain.Identity{}, context.DeadlineExceeded
	}
	return id, nil
}
