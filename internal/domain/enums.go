package domain

import (
	"fmt"
	"strings"
)

type SessionType string

const (
	SessionWork  SessionType = "work"
	SessionLunch SessionType = "lunch"
)

// ValidSessionTypes is the canonical set of accepted session type strings.
var ValidSessionTypes = map[string]bool{
	"work": true, "lunch": true,
}

// ParseSessionType normalizes s and validates it against ValidSessionTypes.
func ParseSessionType(s string) (SessionType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !ValidSessionTypes[v] {
		return "", fmt.Errorf("session type %q: %w", s, ErrInvalidSessionType)
	}
	return SessionType(v), nil
}

// CountdownBand is a presentation hint derived from the remaining time.
type CountdownBand string

const (
	BandNormal   CountdownBand = "normal"
	BandWarning  CountdownBand = "warning"
	BandCritical CountdownBand = "critical"
)

type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
	SyncOffline SyncStatus = "offline"
)

type VerifyStatus string

const (
	VerifyValid   VerifyStatus = "valid"
	VerifyExpired VerifyStatus = "expired"
)

type AuthState string

const (
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthAuthenticating  AuthState = "authenticating"
	AuthAuthenticated   AuthState = "authenticated"
	AuthFailed          AuthState = "auth_failed"
)
