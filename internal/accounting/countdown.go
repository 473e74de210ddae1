package accounting

import (
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
)

const (
	criticalBandSeconds = 3600
	warningBandSeconds  = 7200
)

type Projection struct {
	// Visible is false when nothing was tracked today and no session is open.
	Visible           bool
	MaxSeconds        int64
	BillableSeconds   int64
	RemainingBillable int64
	// LunchBuffer is the anticipated deduction added to RemainingAdjusted.
	LunchBuffer       int64
	RemainingAdjusted int64
	// ProjectedClockOut is nil unless a session is active.
	ProjectedClockOut *time.Time
	Band              domain.CountdownBand
}

// Project estimates when today's billable time reaches the daily maximum.
//
// While a session is active and raw work today is still under the lunch
// threshold, the remaining time is extended by one lunch duration: crossing
// the threshold later will retroactively consume that much billable time.
func Project(in Input, now time.Time) Projection {
	billing := ComputeBilling(in, now)
	maxSeconds := in.Rules.MaxSeconds(in.CustomTargetHours)
	remaining := maxSeconds - billing.BillableSeconds

	p := Projection{
		Visible:           billing.BillableSeconds > 0 || len(in.ActiveSessions) > 0 || hasSessionsOn(in, now),
		MaxSeconds:        maxSeconds,
		BillableSeconds:   billing.BillableSeconds,
		RemainingBillable: remaining,
		RemainingAdjusted: remaining,
	}

	if len(in.ActiveSessions) > 0 {
		if float64(billing.RawWorkSeconds) < in.Rules.LunchThresholdSeconds() && remaining > 0 {
			p.LunchBuffer = in.Rules.LunchSeconds()
			p.RemainingAdjusted += p.LunchBuffer
		}
		clockOut := now.Add(time.Duration(p.RemainingAdjusted) * time.Second)
		p.ProjectedClockOut = &clockOut
	}

	p.Band = BandFor(p.RemainingAdjusted)
	return p
}

// BandFor maps remaining seconds to a presentation band.
func BandFor(remaining int64) domain.CountdownBand {
	switch {
	case remaining <= criticalBandSeconds:
		return domain.BandCritical
	case remaining <= warningBandSeconds:
		return domain.BandWarning
	default:
		return domain.BandNormal
	}
}

func hasSessionsOn(in Input, now time.Time) bool {
	for i := range in.Sessions {
		if in.Sessions[i].OnDay(now, in.Location) {
			return true
		}
	}
	return false
}

// ActiveHint describes an active session for status lines.
type ActiveHint struct {
	Session        domain.Session
	ElapsedSeconds int64
	LunchPending   bool
}

// ActiveHints reports elapsed time per active session and whether a lunch
// deduction will apply to it.
func ActiveHints(in Input, now time.Time) []ActiveHint {
	hints := make([]ActiveHint, 0, len(in.ActiveSessions))
	for _, s := range in.ActiveSessions {
		elapsed := domain.Elapsed(s.CheckIn, now)
		hints = append(hints, ActiveHint{
			Session:        s.Clone(),
			ElapsedSeconds: elapsed,
			LunchPending:   s.IsWork() && in.Rules.ExceedsLunchThreshold(elapsed),
		})
	}
	return hints
}
