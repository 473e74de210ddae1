package service

import (
	"sync"

	"github.com/alexanderramin/worktime/internal/domain"
)

type syncState struct {
	status domain.SyncStatus
	err    string
}

// StatusBoard holds the latest sync status per user. Gateways and autosave
// workers report into it; trackers read from it.
type StatusBoard struct {
	mu     sync.Mutex
	states map[string]syncState
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{states: make(map[string]syncState)}
}

// Report records status for userID. A nil error clears the last message.
func (b *StatusBoard) Report(userID string, status domain.SyncStatus, err error) {
	st := syncState{status: status}
	if err != nil {
		st.err = err.Error()
	}
	b.mu.Lock()
	b.states[userID] = st
	b.mu.Unlock()
}

// ReportIdentity adapts Report to gateway.WithStatusHook.
func (b *StatusBoard) ReportIdentity(id domain.Identity, status domain.SyncStatus) {
	b.Report(id.UserID, status, nil)
}

func (b *StatusBoard) Get(userID string) (domain.SyncStatus, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[userID]
	if !ok {
		return domain.SyncIdle, ""
	}
	return st.status, st.err
}

func (b *StatusBoard) Forget(userID string) {
	b.mu.Lock()
	delete(b.states, userID)
	b.mu.Unlock()
}
