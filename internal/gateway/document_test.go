package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_DecodesLegacyBrowserData(t *testing.T) {
	raw := `{
		"sessions": [
			{"id": 1741597200000, "checkIn": "2026-03-10T09:00:00.000Z", "checkOut": "2026-03-10T15:01:00.000Z",
			 "type": "work", "duration": 21660, "isActive": false, "hasAutoLunch": true},
			{"id": 1741590000000, "checkIn": {"__type": "Date", "iso": "2026-03-10T07:00:00.000Z"},
			 "checkOut": {"__type": "Date", "iso": "2026-03-10T07:30:00.000Z"}, "type": "lunch", "duration": 1800.7}
		],
		"activeSessions": [
			{"id": "a1", "checkIn": "2026-03-10T16:00:00.000Z", "type": "work", "isActive": true}
		],
		"customTargetHours": 8,
		"lastModified": {"__type": "Date", "iso": "2026-03-10T16:05:00.000Z"}
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	snap := doc.Snapshot()

	require.Len(t, snap.Sessions, 2)
	assert.Equal(t, "1741590000000", snap.Sessions[0].ID, "sorted by check-in")
	assert.Equal(t, int64(1800), snap.Sessions[0].Duration, "fractional durations are floored")
	assert.Equal(t, domain.SessionLunch, snap.Sessions[0].Type)
	assert.Equal(t, "1741597200000", snap.Sessions[1].ID)
	assert.True(t, snap.Sessions[1].HasAutoLunch)

	require.Len(t, snap.ActiveSessions, 1)
	assert.True(t, snap.ActiveSessions[0].IsActive)
	assert.Equal(t, 8.0, snap.CustomTargetHours)
	require.NotNil(t, snap.LastModified)
	assert.True(t, time.Date(2026, 3, 10, 16, 5, 0, 0, time.UTC).Equal(*snap.LastModified))
}

func TestDocument_DerivesMissingDuration(t *testing.T) {
	raw := `{"sessions":[{"id":"s1","checkIn":"2026-03-10T09:00:00Z","checkOut":"2026-03-10T10:00:00Z","type":"nap"}]}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	snap := doc.Snapshot()

	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, int64(3600), snap.Sessions[0].Duration)
	assert.Equal(t, domain.SessionWork, snap.Sessions[0].Type, "unknown types fall back to work")
	assert.NotNil(t, snap.ActiveSessions)
}

func TestDocument_RoundTripKeepsFields(t *testing.T) {
	want := sampleSnapshot()
	b, err := json.Marshal(NewDocument(want))
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(b, &doc))
	assertSameSnapshot(t, want, doc.Snapshot())
}

func TestDocument_RejectsBadTime(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"sessions":[{"id":"s1","checkIn":"yesterday"}]}`), &doc)
	assert.Error(t, err)
}
