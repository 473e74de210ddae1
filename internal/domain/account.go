package domain

import (
	"math"
	"sort"
	"time"
)

// Rules holds the thresholds the time accounting engine applies.
type Rules struct {
	MaxHoursPerDay      float64
	MandatoryLunchHours float64
	LunchDuration       time.Duration
}

// DefaultRules returns the standard 10h maximum, 5h lunch threshold and
// 30 minute lunch deduction.
func DefaultRules() Rules {
	return Rules{
		MaxHoursPerDay:      10,
		MandatoryLunchHours: 5,
		LunchDuration:       30 * time.Minute,
	}
}

// LunchThresholdSeconds is the continuous work time beyond which a lunch
// break is presumed.
func (r Rules) LunchThresholdSeconds() float64 {
	return r.MandatoryLunchHours * 3600
}

// LunchSeconds is the fixed deduction applied per auto-lunch session.
func (r Rules) LunchSeconds() int64 {
	return int64(r.LunchDuration / time.Second)
}

// ExceedsLunchThreshold reports whether a work span of the given seconds
// strictly exceeds the mandatory lunch threshold.
func (r Rules) ExceedsLunchThreshold(seconds int64) bool {
	return float64(seconds) > r.LunchThresholdSeconds()
}

// MaxSeconds returns the daily limit, preferring a positive custom target.
func (r Rules) MaxSeconds(customTargetHours float64) int64 {
	hours := r.MaxHoursPerDay
	if customTargetHours > 0 {
		hours = customTargetHours
	}
	return int64(math.Round(hours * 3600))
}

// Snapshot is the persisted form of one user's account state.
type Snapshot struct {
	Sessions          []Session  `json:"sessions"`
	ActiveSessions    []Session  `json:"activeSessions"`
	CustomTargetHours float64    `json:"customTargetHours"`
	LastModified      *time.Time `json:"lastModified,omitempty"`
}

// Normalize sorts completed sessions chronologically, drops duplicate
// active ids and replaces nil slices with empty ones.
func (s *Snapshot) Normalize() {
	if s.Sessions == nil {
		s.Sessions = []Session{}
	}
	if s.ActiveSessions == nil {
		s.ActiveSessions = []Session{}
	}
	SortByCheckIn(s.Sessions)

	seen := make(map[string]bool, len(s.ActiveSessions))
	active := s.ActiveSessions[:0]
	for _, a := range s.ActiveSessions {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		active = append(active, a)
	}
	s.ActiveSessions = active
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Sessions:          make([]Session, len(s.Sessions)),
		ActiveSessions:    make([]Session, len(s.ActiveSessions)),
		CustomTargetHours: s.CustomTargetHours,
	}
	for i, sess := range s.Sessions {
		out.Sessions[i] = sess.Clone()
	}
	for i, sess := range s.ActiveSessions {
		out.ActiveSessions[i] = sess.Clone()
	}
	if s.LastModified != nil {
		lm := *s.LastModified
		out.LastModified = &lm
	}
	return out
}

// SortByCheckIn orders sessions by check-in time, keeping insertion order
// for equal timestamps.
func SortByCheckIn(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CheckIn.Before(sessions[j].CheckIn)
	})
}
