package engine

import (
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
)

// Command is a mutation request against the engine. The set of variants is
// closed; Dispatch routes each one to its handler.
type Command interface {
	commandName() string
}

type StartSession struct {
	Type domain.SessionType
	// At overrides the check-in time; zero means now.
	At time.Time
}

type CompleteSession struct {
	ID string
	At time.Time
}

type CompleteAll struct {
	At time.Time
}

type ManualCheckOut struct {
	ID string
	At time.Time
}

// ManualNewSession records a session by hand. With neither CheckOut nor
// DurationHours set it opens an active session at CheckIn.
type ManualNewSession struct {
	Type          domain.SessionType
	CheckIn       time.Time
	CheckOut      *time.Time
	DurationHours *float64
}

type ResetToday struct{}

type SetCustomTarget struct {
	Hours float64
}

func (StartSession) commandName() string     { return "start_session" }
func (CompleteSession) commandName() string  { return "complete_session" }
func (CompleteAll) commandName() string      { return "complete_all" }
func (ManualCheckOut) commandName() string   { return "manual_check_out" }
func (ManualNewSession) commandName() string { return "manual_new_session" }
func (ResetToday) commandName() string       { return "reset_today" }
func (SetCustomTarget) commandName() string  { return "set_custom_target" }

// CommandName returns the stable identifier of a command, for logs.
func CommandName(c Command) string {
	if c == nil {
		return ""
	}
	return c.commandName()
}

// Result reports what a command changed.
type Result struct {
	Sessions []domain.Session
	Removed  int
}
