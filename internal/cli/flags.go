package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

// sessionTypeValue is a pflag.Value accepting "work" or "lunch".
type sessionTypeValue struct {
	typ domain.SessionType
}

var _ pflag.Value = (*sessionTypeValue)(nil)

func newSessionTypeValue(def domain.SessionType) *sessionTypeValue {
	return &sessionTypeValue{typ: def}
}

func (v *sessionTypeValue) String() string { return string(v.typ) }

func (v *sessionTypeValue) Set(s string) error {
	t, err := domain.ParseSessionType(s)
	if err != nil {
		return err
	}
	v.typ = t
	return nil
}

func (v *sessionTypeValue) Type() string { return "work|lunch" }

var clockLayouts = []string{"15:04", "15:04:05", "3:04pm", "3pm"}

// parseAt resolves a time flag. An empty value means "now" and returns the
// zero time. A bare clock time is taken on day (or today) in loc; full
// timestamps are accepted as RFC 3339 or "2006-01-02 15:04".
func parseAt(value, day string, now time.Time, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
		return t, nil
	}

	base, err := parseDay(day, now, loc)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range clockLayouts {
		c, err := time.ParseInLocation(layout, strings.ToLower(value), loc)
		if err != nil {
			continue
		}
		return time.Date(base.Year(), base.Month(), base.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use HH:MM, \"YYYY-MM-DD HH:MM\" or RFC 3339", value)
}

// parseDay parses a YYYY-MM-DD flag, defaulting to today in loc.
func parseDay(day string, now time.Time, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(day) == "" {
		return domain.StartOfDay(now, loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(day), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", day)
	}
	return t, nil
}

// parseOptionalDay returns nil for an empty value.
func parseOptionalDay(day string, now time.Time, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(day) == "" {
		return nil, nil
	}
	t, err := parseDay(day, now, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// resolveActiveID matches an active session by id or unique id prefix.
// With an empty prefix it returns the only active session.
func resolveActiveID(t *service.Tracker, prefix string) (string, error) {
	active := t.ActiveSessions()
	if len(active) == 0 {
		return "", fmt.Errorf("no active session")
	}
	if prefix == "" {
		if len(active) > 1 {
			return "", fmt.Errorf("%d sessions are active; pass a session ID or --all", len(active))
		}
		return active[0].ID, nil
	}

	var matches []string
	for _, s := range active {
		if s.ID == prefix {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, prefix) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("active session %s: %w", prefix, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session ID %q is ambiguous", prefix)
	}
}
