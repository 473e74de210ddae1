package app

import (
	"time"

	"github.com/alexanderramin/worktime/internal/accounting"
	"github.com/alexanderramin/worktime/internal/domain"
)

type TodayRequest struct {
	Now *time.Time
}

func NewTodayRequest() TodayRequest {
	return TodayRequest{}
}

// At returns the request time, defaulting to fallback.
func (r TodayRequest) At(fallback time.Time) time.Time {
	if r.Now != nil {
		return *r.Now
	}
	return fallback
}

type SessionView struct {
	ID              string             `json:"id"`
	Type            domain.SessionType `json:"type"`
	CheckIn         time.Time          `json:"checkIn"`
	CheckOut        *time.Time         `json:"checkOut,omitempty"`
	DurationSeconds int64              `json:"durationSeconds"`
	IsActive        bool               `json:"isActive"`
	HasAutoLunch    bool               `json:"hasAutoLunch"`
	IsManualEntry   bool               `json:"isManualEntry"`
	// LunchPending is set on active work sessions past the lunch threshold.
	LunchPending bool `json:"lunchPending,omitempty"`
}

func NewSessionView(s domain.Session) SessionView {
	return SessionView{
		ID:              s.ID,
		Type:            s.Type,
		CheckIn:         s.CheckIn,
		CheckOut:        s.CheckOut,
		DurationSeconds: s.Duration,
		IsActive:        s.IsActive,
		HasAutoLunch:    s.HasAutoLunch,
		IsManualEntry:   s.IsManualEntry,
	}
}

// NewActiveSessionView renders an open session with its live elapsed time.
func NewActiveSessionView(h accounting.ActiveHint) SessionView {
	v := NewSessionView(h.Session)
	v.IsActive = true
	v.DurationSeconds = h.ElapsedSeconds
	v.LunchPending = h.LunchPending
	return v
}

func NewSessionViews(sessions []domain.Session) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionView(s))
	}
	return out
}

type CountdownView struct {
	Visible           bool                 `json:"visible"`
	MaxSeconds        int64                `json:"maxSeconds"`
	RemainingBillable int64                `json:"remainingBillableSeconds"`
	LunchBuffer       int64                `json:"lunchBufferSeconds"`
	RemainingAdjusted int64                `json:"remainingAdjustedSeconds"`
	ProjectedClockOut *time.Time           `json:"projectedClockOut,omitempty"`
	Band              domain.CountdownBand `json:"band"`
}

func NewCountdownView(p accounting.Projection) CountdownView {
	return CountdownView{
		Visible:           p.Visible,
		MaxSeconds:        p.MaxSeconds,
		RemainingBillable: p.RemainingBillable,
		LunchBuffer:       p.LunchBuffer,
		RemainingAdjusted: p.RemainingAdjusted,
		ProjectedClockOut: p.ProjectedClockOut,
		Band:              p.Band,
	}
}

// ProgressPct is billable time as a share of the daily maximum, capped at 100.
func (c CountdownView) ProgressPct() float64 {
	if c.MaxSeconds <= 0 {
		return 0
	}
	pct := float64(c.MaxSeconds-c.RemainingBillable) / float64(c.MaxSeconds) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

type StatisticsView struct {
	SessionCount  int `json:"sessionCount"`
	BreakCount    int `json:"breakCount"`
	EfficiencyPct int `json:"efficiencyPct"`
}

// TodayView is the aggregate every presentation renders.
type TodayView struct {
	GeneratedAt           time.Time         `json:"generatedAt"`
	Date                  string            `json:"date"`
	User                  string            `json:"user"`
	CurrentSessionSeconds int64             `json:"currentSessionSeconds"`
	TotalSeconds          int64             `json:"totalSeconds"`
	RawWorkSeconds        int64             `json:"rawWorkSeconds"`
	LunchDeductedSeconds  int64             `json:"lunchDeductedSeconds"`
	BillableSeconds       int64             `json:"billableSeconds"`
	CustomTargetHours     float64           `json:"customTargetHours"`
	Countdown             CountdownView     `json:"countdown"`
	Statistics            StatisticsView    `json:"statistics"`
	ActiveSessions        []SessionView     `json:"activeSessions"`
	Sessions              []SessionView     `json:"sessions"`
	SyncStatus            domain.SyncStatus `json:"syncStatus"`
	SyncError             string            `json:"syncError,omitempty"`
}

// HasLunchPending reports whether any open session will trigger a deduction.
func (v TodayView) HasLunchPending() bool {
	for _, s := range v.ActiveSessions {
		if s.LunchPending {
			return true
		}
	}
	return false
}

type HistoryRequest struct {
	From       *time.Time
	To         *time.Time
	Type       domain.SessionType
	ManualOnly bool
	Limit      uint64
}
