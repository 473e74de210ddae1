// Package engine owns the account state of one signed-in identity and
// applies session lifecycle rules to it.
//
// Every mutation is synchronous and atomic with respect to the in-memory
// state: validation happens before anything is changed, so a rejected
// command leaves the state exactly as it was.
package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/google/uuid"
)

const (
	minManualHours = 0.25
	maxManualHours = 12
	maxTargetHours = 24
)

type Engine struct {
	mu       sync.Mutex
	state    domain.Snapshot
	rules    domain.Rules
	loc      *time.Location
	now      func() time.Time
	newID    func() string
	listener Listener
}

type Option func(*Engine)

func WithRules(r domain.Rules) Option {
	return func(e *Engine) { e.rules = r }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listener = l
		}
	}
}

// New creates an engine with empty account state.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:    domain.DefaultRules(),
		loc:      time.Local,
		now:      time.Now,
		newID:    uuid.NewString,
		listener: noopListener{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state.Normalize()
	return e
}

// SetListener replaces the event listener.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		l = noopListener{}
	}
	e.listener = l
}

// Restore replaces the account state with a loaded snapshot.
func (e *Engine) Restore(s domain.Snapshot) {
	s = s.Clone()
	s.Normalize()
	for i := range s.ActiveSessions {
		s.ActiveSessions[i].IsActive = true
	}
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Snapshot returns a deep copy of the account state for persistence.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state.Clone()
	now := e.now()
	s.LastModified = &now
	return s
}

// Dispatch applies a command, filling in "now" for unset timestamps.
func (e *Engine) Dispatch(cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case StartSession:
		s, err := e.StartSession(c.Type, c.At)
		return single(s, err)
	case CompleteSession:
		s, err := e.CompleteSession(c.ID, e.orNow(c.At))
		return single(s, err)
	case CompleteAll:
		done, err := e.CompleteAllActive(e.orNow(c.At))
		return Result{Sessions: done}, err
	case ManualCheckOut:
		s, err := e.ManualCheckOut(c.ID, c.At)
		return single(s, err)
	case ManualNewSession:
		s, err := e.ManualNewSession(c)
		return single(s, err)
	case ResetToday:
		return Result{Removed: e.ResetToday(e.now())}, nil
	case SetCustomTarget:
		return Result{}, e.SetCustomTarget(c.Hours)
	default:
		return Result{}, fmt.Errorf("unknown command %T", cmd)
	}
}

func single(s domain.Session, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Sessions: []domain.Session{s}}, nil
}

func (e *Engine) orNow(t time.Time) time.Time {
	if t.IsZero() {
		return e.now()
	}
	return t
}

// StartSession opens a new active session. Concurrent active sessions of
// any type are allowed.
func (e *Engine) StartSession(typ domain.SessionType, checkIn time.Time) (domain.Session, error) {
	if _, err := domain.ParseSessionType(string(typ)); err != nil {
		return domain.Session{}, err
	}
	s := domain.Session{
		ID:       e.newID(),
		CheckIn:  e.orNow(checkIn),
		Type:     typ,
		IsActive: true,
	}

	e.mu.Lock()
	e.state.ActiveSessions = append(e.state.ActiveSessions, s)
	e.mu.Unlock()

	e.emit(StateChanged{Reason: "session_started"})
	return s.Clone(), nil
}

// CompleteSession closes the active session with the given id at end.
func (e *Engine) CompleteSession(id string, end time.Time) (domain.Session, error) {
	return e.completeByID(id, end, false)
}

// ManualCheckOut closes an active session at a user-supplied time and
// marks it as a manual entry.
func (e *Engine) ManualCheckOut(id string, checkOut time.Time) (domain.Session, error) {
	return e.completeByID(id, checkOut, true)
}

func (e *Engine) completeByID(id string, end time.Time, manual bool) (domain.Session, error) {
	var events []Event

	e.mu.Lock()
	idx := e.activeIndex(id)
	if idx < 0 {
		e.mu.Unlock()
		return domain.Session{}, fmt.Errorf("active session %s: %w", id, domain.ErrNotFound)
	}
	s := e.state.ActiveSessions[idx]
	if !end.After(s.CheckIn) {
		e.mu.Unlock()
		return domain.Session{}, fmt.Errorf("completing session %s: %w", id, domain.ErrInvalidOrdering)
	}

	e.finish(&s, end, &events)
	if manual {
		s.IsManualEntry = true
	}
	e.state.ActiveSessions = append(e.state.ActiveSessions[:idx], e.state.ActiveSessions[idx+1:]...)
	e.insertCompleted(s)
	e.mu.Unlock()

	events = append(events, StateChanged{Reason: "session_completed"})
	e.emit(events...)
	return s.Clone(), nil
}

// CompleteAllActive closes every active session at the same end time.
// If any session cannot be closed at end, none are.
func (e *Engine) CompleteAllActive(end time.Time) ([]domain.Session, error) {
	var events []Event

	e.mu.Lock()
	for _, s := range e.state.ActiveSessions {
		if !end.After(s.CheckIn) {
			e.mu.Unlock()
			return nil, fmt.Errorf("completing session %s: %w", s.ID, domain.ErrInvalidOrdering)
		}
	}
	if len(e.state.ActiveSessions) == 0 {
		e.mu.Unlock()
		return nil, nil
	}

	done := make([]domain.Session, 0, len(e.state.ActiveSessions))
	for _, s := range e.state.ActiveSessions {
		e.finish(&s, end, &events)
		e.insertCompleted(s)
		done = append(done, s.Clone())
	}
	e.state.ActiveSessions = []domain.Session{}
	e.mu.Unlock()

	events = append(events, StateChanged{Reason: "all_sessions_completed"})
	e.emit(events...)
	return done, nil
}

// ManualNewSession records a session entered by hand.
func (e *Engine) ManualNewSession(entry ManualNewSession) (domain.Session, error) {
	if _, err := domain.ParseSessionType(string(entry.Type)); err != nil {
		return domain.Session{}, err
	}
	if entry.CheckIn.IsZero() {
		return domain.Session{}, fmt.Errorf("manual session: %w", domain.ErrMissingCheckIn)
	}

	s := domain.Session{
		ID:            e.newID(),
		CheckIn:       entry.CheckIn,
		Type:          entry.Type,
		IsManualEntry: true,
	}

	var end time.Time
	switch {
	case entry.CheckOut != nil:
		if !entry.CheckOut.After(entry.CheckIn) {
			return domain.Session{}, fmt.Errorf("manual session: %w", domain.ErrInvalidOrdering)
		}
		end = *entry.CheckOut
	case entry.DurationHours != nil:
		hours := *entry.DurationHours
		if !(hours >= minManualHours && hours <= maxManualHours) {
			return domain.Session{}, fmt.Errorf("manual session of %.2fh: %w", hours, domain.ErrInvalidDuration)
		}
		end = entry.CheckIn.Add(time.Duration(hours * float64(time.Hour)))
	default:
		s.IsActive = true
		e.mu.Lock()
		e.state.ActiveSessions = append(e.state.ActiveSessions, s)
		e.mu.Unlock()
		e.emit(StateChanged{Reason: "manual_session_started"})
		return s.Clone(), nil
	}

	var events []Event
	e.mu.Lock()
	e.finish(&s, end, &events)
	e.insertCompleted(s)
	e.mu.Unlock()

	events = append(events, StateChanged{Reason: "manual_session_added"})
	e.emit(events...)
	return s.Clone(), nil
}

// CarryOverStaleActiveSessions force-completes every active session that
// was not checked in on today's date at 23:59:59 of its own check-in day.
// Sessions from today stay active.
func (e *Engine) CarryOverStaleActiveSessions(today time.Time) []domain.Session {
	var events []Event
	var moved []domain.Session

	e.mu.Lock()
	kept := make([]domain.Session, 0, len(e.state.ActiveSessions))
	for _, s := range e.state.ActiveSessions {
		if s.OnDay(today, e.loc) {
			kept = append(kept, s)
			continue
		}
		end := domain.EndOfDay(s.CheckIn, e.loc)
		if !end.After(s.CheckIn) {
			end = s.CheckIn.Add(time.Second)
		}
		e.finish(&s, end, &events)
		e.insertCompleted(s)
		moved = append(moved, s.Clone())
	}
	e.state.ActiveSessions = kept
	e.mu.Unlock()

	if len(moved) > 0 {
		events = append(events, StateChanged{Reason: "stale_sessions_carried_over"})
		e.emit(events...)
	}
	return moved
}

// ResetToday removes every completed and active session checked in today
// and returns how many were removed.
func (e *Engine) ResetToday(today time.Time) int {
	e.mu.Lock()
	removed := 0
	keep := func(in []domain.Session) []domain.Session {
		out := make([]domain.Session, 0, len(in))
		for _, s := range in {
			if s.OnDay(today, e.loc) {
				removed++
				continue
			}
			out = append(out, s)
		}
		return out
	}
	e.state.Sessions = keep(e.state.Sessions)
	e.state.ActiveSessions = keep(e.state.ActiveSessions)
	e.mu.Unlock()

	if removed > 0 {
		e.emit(StateChanged{Reason: "day_reset"})
	}
	return removed
}

// SetCustomTarget overrides the daily maximum; zero restores the default.
func (e *Engine) SetCustomTarget(hours float64) error {
	if math.IsNaN(hours) || hours < 0 || hours > maxTargetHours {
		return fmt.Errorf("target of %.2fh: %w", hours, domain.ErrInvalidTarget)
	}
	e.mu.Lock()
	e.state.CustomTargetHours = hours
	e.mu.Unlock()
	e.emit(StateChanged{Reason: "target_changed"})
	return nil
}

// finish stamps completion fields. Callers hold e.mu and have validated
// that end is after check-in.
func (e *Engine) finish(s *domain.Session, end time.Time, events *[]Event) {
	out := end
	s.CheckOut = &out
	s.Duration = domain.Elapsed(s.CheckIn, end)
	s.IsActive = false
	if s.IsWork() && e.rules.ExceedsLunchThreshold(s.Duration) {
		s.HasAutoLunch = true
		*events = append(*events, LunchThresholdCrossed{SessionID: s.ID})
	}
}

// insertCompleted appends s and restores chronological order.
func (e *Engine) insertCompleted(s domain.Session) {
	e.state.Sessions = append(e.state.Sessions, s)
	domain.SortByCheckIn(e.state.Sessions)
}

func (e *Engine) activeIndex(id string) int {
	for i, s := range e.state.ActiveSessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) emit(events ...Event) {
	e.mu.Lock()
	l := e.listener
	e.mu.Unlock()
	for _, ev := range events {
		l.OnEvent(ev)
	}
}
