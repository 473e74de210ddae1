package engine

import (
	"time"

	"github.com/alexanderramin/worktime/internal/accounting"
	"github.com/alexanderramin/worktime/internal/domain"
)

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.now() }

func (e *Engine) Rules() domain.Rules { return e.rules }

func (e *Engine) Location() *time.Location { return e.loc }

// input copies the state into a calculator input so queries run without
// holding the lock.
func (e *Engine) input() accounting.Input {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state.Clone()
	return accounting.Input{
		Sessions:          s.Sessions,
		ActiveSessions:    s.ActiveSessions,
		CustomTargetHours: s.CustomTargetHours,
		Rules:             e.rules,
		Location:          e.loc,
	}
}

func (e *Engine) Billing(now time.Time) accounting.Billing {
	return accounting.ComputeBilling(e.input(), now)
}

func (e *Engine) Projection(now time.Time) accounting.Projection {
	return accounting.Project(e.input(), now)
}

func (e *Engine) Statistics(now time.Time) accounting.Statistics {
	return accounting.ComputeStatistics(e.input(), now)
}

func (e *Engine) TotalToday(now time.Time) int64 {
	return accounting.TotalSecondsToday(e.input(), now)
}

func (e *Engine) CurrentSessionElapsed(now time.Time) int64 {
	return accounting.CurrentSessionElapsed(e.input(), now)
}

func (e *Engine) ActiveHints(now time.Time) []accounting.ActiveHint {
	return accounting.ActiveHints(e.input(), now)
}

// ActiveSessions returns the open sessions ordered by check-in.
func (e *Engine) ActiveSessions() []domain.Session {
	in := e.input()
	domain.SortByCheckIn(in.ActiveSessions)
	return in.ActiveSessions
}

func (e *Engine) HasActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.ActiveSessions) > 0
}

// SessionsOn returns completed sessions checked in on day, in order.
func (e *Engine) SessionsOn(day time.Time) []domain.Session {
	in := e.input()
	out := make([]domain.Session, 0, len(in.Sessions))
	for _, s := range in.Sessions {
		if s.OnDay(day, e.loc) {
			out = append(out, s)
		}
	}
	return out
}

// AllSessions returns every completed session, oldest first.
func (e *Engine) AllSessions() []domain.Session {
	return e.input().Sessions
}

func (e *Engine) CustomTargetHours() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CustomTargetHours
}
