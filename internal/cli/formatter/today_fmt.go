package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/domain"
)

const todayProgressBarWidth = 24

// FormatToday renders the daily dashboard.
func FormatToday(v *contract.TodayView, loc *time.Location) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n", Bold(v.User), Dim(v.Date), SyncPill(v.SyncStatus)))

	if len(v.ActiveSessions) > 0 {
		b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Current session"), StyleGreen.Render(FormatClock(v.CurrentSessionSeconds))))
	} else {
		b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Current session"), Dim("not checked in")))
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Total today    "), StyleFg.Render(FormatClock(v.TotalSeconds))))
	b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Work           "), StyleFg.Render(FormatDuration(v.RawWorkSeconds))))
	if v.LunchDeductedSeconds > 0 {
		b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Lunch deducted "), StylePurple.Render("-"+FormatDuration(v.LunchDeductedSeconds))))
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Billable       "), Bold(FormatDuration(v.BillableSeconds))))

	if cd := v.Countdown; cd.Visible {
		b.WriteString("\n")
		b.WriteString(FormatCountdown(cd, loc))
	}

	if v.CustomTargetHours > 0 {
		b.WriteString(Dim(fmt.Sprintf("Custom target %s\n", FormatHours(v.CustomTargetHours))))
	}

	st := v.Statistics
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("%d sessions, %d breaks, %d%% efficiency", st.SessionCount, st.BreakCount, st.EfficiencyPct)))
	b.WriteString("\n")

	if len(v.ActiveSessions) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Active"))
		b.WriteString("\n")
		b.WriteString(renderSessionRows(v.ActiveSessions, loc))
	}

	if v.HasLunchPending() {
		b.WriteString("\n")
		b.WriteString(StyleYellow.Render("  Lunch will be deducted when the current work session ends.") + "\n")
	}
	if v.SyncError != "" {
		b.WriteString("\n")
		b.WriteString(StyleRed.Render("  "+v.SyncError) + "\n")
	}

	return RenderBox("Today", strings.TrimRight(b.String(), "\n"))
}

// FormatCountdown renders the remaining time, the projected clock-out and a
// progress bar toward the daily maximum.
func FormatCountdown(cd contract.CountdownView, loc *time.Location) string {
	var b strings.Builder
	style := BandStyle(cd.Band)

	b.WriteString(fmt.Sprintf("%s  %s", Dim("Remaining      "), style.Render(FormatClock(cd.RemainingAdjusted))))
	if cd.LunchBuffer > 0 {
		b.WriteString(Dim(fmt.Sprintf("  incl. %s lunch", FormatDuration(cd.LunchBuffer))))
	}
	b.WriteString("\n")

	out := "--:--"
	if cd.ProjectedClockOut != nil {
		out = ClockTime(*cd.ProjectedClockOut, loc)
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Clock out at   "), style.Render(out)))
	b.WriteString(RenderProgress(cd.ProgressPct()/100, todayProgressBarWidth, cd.Band))
	b.WriteString("\n")
	return b.String()
}

// FormatSessions renders today's sessions, open ones first.
func FormatSessions(v *contract.TodayView, loc *time.Location) string {
	all := make([]contract.SessionView, 0, len(v.ActiveSessions)+len(v.Sessions))
	all = append(all, v.ActiveSessions...)
	all = append(all, v.Sessions...)
	if len(all) == 0 {
		return Dim("No sessions today.") + "\n"
	}
	return RenderBox("Sessions "+v.Date, strings.TrimRight(renderSessionRows(all, loc), "\n"))
}

func renderSessionRows(sessions []contract.SessionView, loc *time.Location) string {
	headers := []string{"ID", "TYPE", "IN", "OUT", "DURATION", ""}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		out := StyleGreen.Render("active")
		if s.CheckOut != nil {
			out = ClockTime(*s.CheckOut, loc)
		}
		rows = append(rows, []string{
			TruncID(s.ID),
			TypeBadge(s.Type),
			ClockTime(s.CheckIn, loc),
			out,
			FormatClock(s.DurationSeconds),
			sessionFlags(s.HasAutoLunch, s.IsManualEntry, s.LunchPending),
		})
	}
	return RenderTable(headers, rows, AlignRight(4))
}

func sessionFlags(autoLunch, manual, lunchPending bool) string {
	var flags []string
	if autoLunch {
		flags = append(flags, StylePurple.Render("lunch"))
	}
	if lunchPending {
		flags = append(flags, StyleYellow.Render("lunch due"))
	}
	if manual {
		flags = append(flags, Dim("manual"))
	}
	return strings.Join(flags, " ")
}

// FormatHistory renders stored sessions in date order with work and lunch
// totals.
func FormatHistory(sessions []domain.Session, now time.Time, loc *time.Location) string {
	if len(sessions) == 0 {
		return Dim("No sessions found.") + "\n"
	}
	headers := []string{"DATE", "ID", "TYPE", "IN", "OUT", "DURATION", ""}
	rows := make([][]string, 0, len(sessions))
	var work, lunch int64
	for _, s := range sessions {
		out := StyleGreen.Render("active")
		if s.CheckOut != nil {
			out = ClockTime(*s.CheckOut, loc)
		}
		elapsed := s.ElapsedAt(now)
		if s.IsWork() {
			work += elapsed
		} else {
			lunch += elapsed
		}
		rows = append(rows, []string{
			HumanDate(s.CheckIn, now, loc),
			TruncID(s.ID),
			TypeBadge(s.Type),
			ClockTime(s.CheckIn, loc),
			out,
			FormatClock(elapsed),
			sessionFlags(s.HasAutoLunch, s.IsManualEntry, false),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows, AlignRight(5)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		Dim("Work"), Bold(FormatDuration(work)),
		Dim("Lunch"), Bold(FormatDuration(lunch))))
	return RenderBox("History", strings.TrimRight(b.String(), "\n"))
}

// FormatSession renders a one-line confirmation for a changed session.
func FormatSession(verb string, s domain.Session, loc *time.Location) string {
	line := fmt.Sprintf("%s %s %s at %s", StyleGreen.Render(verb), TypeBadge(s.Type), TruncID(s.ID), ClockTime(s.CheckIn, loc))
	if s.CheckOut != nil {
		line += fmt.Sprintf(" → %s (%s)", ClockTime(*s.CheckOut, loc), FormatDuration(s.Duration))
	}
	if s.HasAutoLunch {
		line += " " + StylePurple.Render("lunch deducted")
	}
	return line
}

// FormatIdentity renders the signed-in user.
func FormatIdentity(id domain.Identity) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n", Dim("User    "), Bold(id.Label())))
	if id.Email != "" {
		b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Email   "), StyleFg.Render(id.Email)))
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Provider"), StyleFg.Render(id.Provider)))
	if !id.SignedInAt.IsZero() {
		b.WriteString(fmt.Sprintf("%s  %s\n", Dim("Since   "), StyleFg.Render(id.SignedInAt.Format("Jan 2, 2006 15:04"))))
	}
	return RenderBox("Signed in", strings.TrimRight(b.String(), "\n"))
}
