// Package accounting turns check-in/check-out events into billable time.
//
// Everything here is a pure function of the account state, the rules and a
// timestamp; nothing mutates its inputs.
package accounting

import (
	"math"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
)

// Input is the state the calculator reads from.
type Input struct {
	Sessions          []domain.Session
	ActiveSessions    []domain.Session
	CustomTargetHours float64
	Rules             domain.Rules
	Location          *time.Location
}

type Billing struct {
	RawWorkSeconds       int64
	LunchDeductedSeconds int64
	BillableSeconds      int64
}

// RawWorkSecondsToday sums completed work durations checked in today plus
// the live elapsed time of today's active work sessions.
func RawWorkSecondsToday(in Input, now time.Time) int64 {
	var total int64
	for i := range in.Sessions {
		s := &in.Sessions[i]
		if s.IsWork() && s.OnDay(now, in.Location) {
			total += s.Duration
		}
	}
	for i := range in.ActiveSessions {
		s := &in.ActiveSessions[i]
		if s.IsWork() && s.OnDay(now, in.Location) {
			total += domain.Elapsed(s.CheckIn, now)
		}
	}
	return total
}

// LunchDeductionSecondsToday adds one lunch deduction per completed work
// session flagged with an auto lunch, and one per active work session whose
// elapsed time already exceeds the threshold.
func LunchDeductionSecondsToday(in Input, now time.Time) int64 {
	lunch := in.Rules.LunchSeconds()
	var total int64
	for i := range in.Sessions {
		s := &in.Sessions[i]
		if s.IsWork() && s.OnDay(now, in.Location) && s.HasAutoLunch {
			total += lunch
		}
	}
	for i := range in.ActiveSessions {
		s := &in.ActiveSessions[i]
		if s.IsWork() && s.OnDay(now, in.Location) && in.Rules.ExceedsLunchThreshold(domain.Elapsed(s.CheckIn, now)) {
			total += lunch
		}
	}
	return total
}

// BillableSecondsToday is raw work minus lunch deductions, floored at zero.
func BillableSecondsToday(in Input, now time.Time) int64 {
	return ComputeBilling(in, now).BillableSeconds
}

func ComputeBilling(in Input, now time.Time) Billing {
	raw := RawWorkSecondsToday(in, now)
	lunch := LunchDeductionSecondsToday(in, now)
	billable := raw - lunch
	if billable < 0 {
		billable = 0
	}
	return Billing{
		RawWorkSeconds:       raw,
		LunchDeductedSeconds: lunch,
		BillableSeconds:      billable,
	}
}

// TotalSecondsToday counts every session type checked in today.
func TotalSecondsToday(in Input, now time.Time) int64 {
	var total int64
	for i := range in.Sessions {
		s := &in.Sessions[i]
		if s.OnDay(now, in.Location) {
			total += s.Duration
		}
	}
	for i := range in.ActiveSessions {
		s := &in.ActiveSessions[i]
		if s.OnDay(now, in.Location) {
			total += domain.Elapsed(s.CheckIn, now)
		}
	}
	return total
}

// CurrentSessionElapsed sums the elapsed time of every active session,
// regardless of the day it started on.
func CurrentSessionElapsed(in Input, now time.Time) int64 {
	var total int64
	for i := range in.ActiveSessions {
		total += domain.Elapsed(in.ActiveSessions[i].CheckIn, now)
	}
	return total
}

type Statistics struct {
	SessionCount  int
	BreakCount    int
	EfficiencyPct int
}

// ComputeStatistics counts today's work sessions (completed plus active
// work), breaks (lunch sessions plus auto lunches) and the billable share
// of total time.
func ComputeStatistics(in Input, now time.Time) Statistics {
	var st Statistics
	for i := range in.Sessions {
		s := &in.Sessions[i]
		if !s.OnDay(now, in.Location) {
			continue
		}
		if s.Type == domain.SessionWork {
			st.SessionCount++
		}
		if s.Type == domain.SessionLunch {
			st.BreakCount++
		}
		if s.HasAutoLunch {
			st.BreakCount++
		}
	}
	for i := range in.ActiveSessions {
		if in.ActiveSessions[i].Type == domain.SessionWork {
			st.SessionCount++
		}
	}

	total := TotalSecondsToday(in, now)
	st.EfficiencyPct = 100
	if total > 0 {
		billable := BillableSecondsToday(in, now)
		st.EfficiencyPct = int(math.Round(float64(billable) / float64(total) * 100))
	}
	return st
}
