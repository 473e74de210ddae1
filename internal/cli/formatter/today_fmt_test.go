package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/stretchr/testify/assert"
)

var fmtNow = time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func sampleToday() *contract.TodayView {
	out := at(12, 0)
	clockOut := at(18, 15)
	return &contract.TodayView{
		GeneratedAt:           fmtNow,
		Date:                  "2026-03-02",
		User:                  "Ada",
		CurrentSessionSeconds: 3600,
		TotalSeconds:          4*3600 + 3600,
		RawWorkSeconds:        4*3600 + 3600,
		BillableSeconds:       4*3600 + 3600,
		Countdown: contract.CountdownView{
			Visible:           true,
			MaxSeconds:        10 * 3600,
			RemainingBillable: 5 * 3600,
			LunchBuffer:       30 * 60,
			RemainingAdjusted: 5*3600 + 30*60,
			ProjectedClockOut: &clockOut,
			Band:              domain.BandNormal,
		},
		Statistics: contract.StatisticsView{SessionCount: 2, BreakCount: 0, EfficiencyPct: 100},
		ActiveSessions: []contract.SessionView{{
			ID: "active-0001", Type: domain.SessionWork, CheckIn: at(12, 0),
			DurationSeconds: 3600, IsActive: true, LunchPending: true,
		}},
		Sessions: []contract.SessionView{{
			ID: "done-0001", Type: domain.SessionWork, CheckIn: at(8, 0), CheckOut: &out,
			DurationSeconds: 4 * 3600,
		}},
		SyncStatus: domain.SyncSynced,
	}
}

func TestFormatToday(t *testing.T) {
	got := stripANSI(FormatToday(sampleToday(), time.UTC))

	assert.Contains(t, got, "TODAY")
	assert.Contains(t, got, "Ada")
	assert.Contains(t, got, "2026-03-02")
	assert.Contains(t, got, "● Synced")
	assert.Contains(t, got, "01:00:00")
	assert.Contains(t, got, "05:30:00")
	assert.Contains(t, got, "incl. 30m lunch")
	assert.Contains(t, got, "18:15")
	assert.Contains(t, got, "50%")
	assert.Contains(t, got, "2 sessions, 0 breaks, 100% efficiency")
	assert.Contains(t, got, "active-0")
	assert.Contains(t, got, "Lunch will be deducted")
}

func TestFormatToday_NotCheckedIn(t *testing.T) {
	v := sampleToday()
	v.ActiveSessions = nil
	v.Countdown = contract.CountdownView{}
	v.SyncStatus = domain.SyncOffline
	v.SyncError = "backend unreachable"

	got := stripANSI(FormatToday(v, time.UTC))
	assert.Contains(t, got, "not checked in")
	assert.NotContains(t, got, "Remaining")
	assert.NotContains(t, got, "Lunch will be deducted")
	assert.Contains(t, got, "○ Offline")
	assert.Contains(t, got, "backend unreachable")
}

func TestFormatCountdown_NoProjection(t *testing.T) {
	got := stripANSI(FormatCountdown(contract.CountdownView{
		Visible:           true,
		MaxSeconds:        3600,
		RemainingAdjusted: 0,
		Band:              domain.BandCritical,
	}, time.UTC))
	assert.Contains(t, got, "--:--")
	assert.Contains(t, got, "100%")
}

func TestFormatSessions(t *testing.T) {
	got := stripANSI(FormatSessions(sampleToday(), time.UTC))
	assert.Contains(t, got, "SESSIONS 2026-03-02")
	assert.Contains(t, got, "active")
	assert.Contains(t, got, "08:00")
	assert.Contains(t, got, "12:00")
	assert.Contains(t, got, "04:00:00")
	assert.Contains(t, got, "lunch due")
}

func TestFormatSessions_Empty(t *testing.T) {
	got := stripANSI(FormatSessions(&contract.TodayView{}, time.UTC))
	assert.Contains(t, got, "No sessions today.")
}

func TestFormatHistory(t *testing.T) {
	end := at(9, 0)
	yesterdayIn := at(8, 0).AddDate(0, 0, -1)
	yesterdayOut := yesterdayIn.Add(5 * time.Hour)
	sessions := []domain.Session{
		{ID: "old-session", Type: domain.SessionWork, CheckIn: yesterdayIn, CheckOut: &yesterdayOut,
			Duration: 5 * 3600, HasAutoLunch: true},
		{ID: "lunch-session", Type: domain.SessionLunch, CheckIn: at(8, 30), CheckOut: &end,
			Duration: 1800, IsManualEntry: true},
	}

	got := stripANSI(FormatHistory(sessions, fmtNow, time.UTC))
	assert.Contains(t, got, "HISTORY")
	assert.Contains(t, got, "Yesterday")
	assert.Contains(t, got, "Today")
	assert.Contains(t, got, "manual")
	assert.Contains(t, got, "Work 5h")
	assert.Contains(t, got, "Lunch 30m")
}

func TestFormatHistory_Empty(t *testing.T) {
	assert.Contains(t, stripANSI(FormatHistory(nil, fmtNow, time.UTC)), "No sessions found.")
}

func TestFormatSession(t *testing.T) {
	out := at(14, 30)
	s := domain.Session{ID: "abcdef123456", Type: domain.SessionWork, CheckIn: at(8, 0), CheckOut: &out,
		Duration: 6*3600 + 30*60, HasAutoLunch: true}

	got := stripANSI(FormatSession("Checked out", s, time.UTC))
	assert.Equal(t, "Checked out Work abcdef12 at 08:00 → 14:30 (6h 30m) lunch deducted", got)
}

func TestFormatIdentity(t *testing.T) {
	got := stripANSI(FormatIdentity(domain.Identity{
		UserID: "u1", Username: "ada", Email: "ada@example.com", Provider: "local",
		SignedInAt: at(7, 45),
	}))
	assert.Contains(t, got, "SIGNED IN")
	assert.Contains(t, got, "ada")
	assert.Contains(t, got, "ada@example.com")
	assert.Contains(t, got, "local")
	assert.Contains(t, got, "Mar 2, 2026 07:45")
}
