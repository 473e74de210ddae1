package domain

import "time"

// Session is a single continuous span of one activity type.
type Session struct {
	ID            string      `json:"id"`
	CheckIn       time.Time   `json:"checkIn"`
	CheckOut      *time.Time  `json:"checkOut,omitempty"`
	Type          SessionType `json:"type"`
	Duration      int64       `json:"duration"`
	IsActive      bool        `json:"isActive"`
	HasAutoLunch  bool        `json:"hasAutoLunch,omitempty"`
	IsManualEntry bool        `json:"isManualEntry,omitempty"`
}

// Elapsed returns the whole seconds between check-in and end, floored.
// Negative spans clamp to zero.
func Elapsed(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// ElapsedAt returns the stored duration for a completed session and the
// live elapsed time against now for an active one.
func (s *Session) ElapsedAt(now time.Time) int64 {
	if s.CheckOut != nil {
		return s.Duration
	}
	return Elapsed(s.CheckIn, now)
}

// IsWork reports whether the session counts toward worked time.
func (s *Session) IsWork() bool {
	return s.Type == SessionWork
}

// OnDay reports whether the session was checked in on the same calendar
// day as day, both evaluated in loc.
func (s *Session) OnDay(day time.Time, loc *time.Location) bool {
	return SameDay(s.CheckIn, day, loc)
}

// Clone returns a deep copy so callers cannot mutate engine-owned state.
func (s Session) Clone() Session {
	if s.CheckOut != nil {
		out := *s.CheckOut
		s.CheckOut = &out
	}
	return s
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	y1, m1, d1 := a.In(loc).Date()
	y2, m2, d2 := b.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc)
}
