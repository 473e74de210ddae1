package testutil

import (
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/google/uuid"
)

type SessionOption func(*domain.Session)

// WithCheckOut completes the session at out and derives its duration.
func WithCheckOut(out time.Time) SessionOption {
	return func(s *domain.Session) {
		s.CheckOut = &out
		s.Duration = domain.Elapsed(s.CheckIn, out)
		s.IsActive = false
	}
}

func WithAutoLunch() SessionOption {
	return func(s *domain.Session) { s.HasAutoLunch = true }
}

func WithManualEntry() SessionOption {
	return func(s *domain.Session) { s.IsManualEntry = true }
}

func WithSessionID(id string) SessionOption {
	return func(s *domain.Session) { s.ID = id }
}

// NewTestSession builds an active session unless WithCheckOut is given.
func NewTestSession(typ domain.SessionType, checkIn time.Time, opts ...SessionOption) domain.Session {
	s := domain.Session{
		ID:       uuid.NewString(),
		CheckIn:  checkIn,
		Type:     typ,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewTestSnapshot splits sessions into completed and active lists.
func NewTestSnapshot(customTarget float64, sessions ...domain.Session) domain.Snapshot {
	snap := domain.Snapshot{CustomTargetHours: customTarget}
	for _, s := range sessions {
		if s.IsActive {
			snap.ActiveSessions = append(snap.ActiveSessions, s)
		} else {
			snap.Sessions = append(snap.Sessions, s)
		}
	}
	snap.Normalize()
	return snap
}

type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) { u.Email = email }
}

func WithDisplayName(name string) UserOption {
	return func(u *domain.User) { u.DisplayName = name }
}

func NewTestUser(username string, opts ...UserOption) *domain.User {
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}
