package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
)

// Document is the JSON account document shared by the remote backends.
// Field names match documents written by the browser version of the
// tracker, which used numeric ids and may encode dates as Parse Date
// objects; decoding accepts both forms.
type Document struct {
	Sessions          []SessionDoc `json:"sessions"`
	ActiveSessions    []SessionDoc `json:"activeSessions"`
	CustomTargetHours float64      `json:"customTargetHours"`
	LastModified      *flexTime    `json:"lastModified,omitempty"`
}

type SessionDoc struct {
	ID            flexID    `json:"id"`
	CheckIn       flexTime  `json:"checkIn"`
	CheckOut      *flexTime `json:"checkOut,omitempty"`
	Type          string    `json:"type"`
	Duration      float64   `json:"duration"`
	IsActive      bool      `json:"isActive"`
	HasAutoLunch  bool      `json:"hasAutoLunch,omitempty"`
	IsManualEntry bool      `json:"isManualEntry,omitempty"`
}

func NewDocument(s domain.Snapshot) Document {
	d := Document{
		Sessions:          make([]SessionDoc, 0, len(s.Sessions)),
		ActiveSessions:    make([]SessionDoc, 0, len(s.ActiveSessions)),
		CustomTargetHours: s.CustomTargetHours,
	}
	for _, sess := range s.Sessions {
		d.Sessions = append(d.Sessions, newSessionDoc(sess))
	}
	for _, sess := range s.ActiveSessions {
		d.ActiveSessions = append(d.ActiveSessions, newSessionDoc(sess))
	}
	if s.LastModified != nil {
		d.LastModified = &flexTime{Time: *s.LastModified}
	}
	return d
}

func newSessionDoc(s domain.Session) SessionDoc {
	doc := SessionDoc{
		ID:            flexID(s.ID),
		CheckIn:       flexTime{Time: s.CheckIn},
		Type:          string(s.Type),
		Duration:      float64(s.Duration),
		IsActive:      s.IsActive,
		HasAutoLunch:  s.HasAutoLunch,
		IsManualEntry: s.IsManualEntry,
	}
	if s.CheckOut != nil {
		doc.CheckOut = &flexTime{Time: *s.CheckOut}
	}
	return doc
}

// Snapshot converts the document back into account state. Sessions with
// an unknown type fall back to work; durations are floored to whole
// seconds.
func (d Document) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{CustomTargetHours: d.CustomTargetHours}
	for _, doc := range d.Sessions {
		s := doc.session()
		s.IsActive = false
		snap.Sessions = append(snap.Sessions, s)
	}
	for _, doc := range d.ActiveSessions {
		s := doc.session()
		s.IsActive = true
		s.CheckOut = nil
		s.Duration = 0
		snap.ActiveSessions = append(snap.ActiveSessions, s)
	}
	if d.LastModified != nil {
		lm := d.LastModified.Time
		snap.LastModified = &lm
	}
	snap.Normalize()
	return snap
}

func (doc SessionDoc) session() domain.Session {
	typ, err := domain.ParseSessionType(doc.Type)
	if err != nil {
		typ = domain.SessionWork
	}
	s := domain.Session{
		ID:            string(doc.ID),
		CheckIn:       doc.CheckIn.Time,
		Type:          typ,
		HasAutoLunch:  doc.HasAutoLunch,
		IsManualEntry: doc.IsManualEntry,
	}
	if doc.Duration > 0 {
		s.Duration = int64(math.Floor(doc.Duration))
	}
	if doc.CheckOut != nil {
		out := doc.CheckOut.Time
		s.CheckOut = &out
		if s.Duration == 0 {
			s.Duration = domain.Elapsed(s.CheckIn, out)
		}
	}
	return s
}

// flexID decodes both string ids and the millisecond-timestamp numbers
// older documents used.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

// flexTime decodes RFC 3339 strings and {"__type":"Date","iso":...}
// objects, and always encodes as an RFC 3339 string.
type flexTime struct {
	time.Time
}

func (f flexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.UTC().Format(time.RFC3339Nano))
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ISO string `json:"iso"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		raw = obj.ISO
	} else if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("parsing time %q: %w", raw, err)
	}
	f.Time = t
	return nil
}
