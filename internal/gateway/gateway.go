// Package gateway persists one user's account snapshot to a backend.
//
// Every backend stores the whole snapshot as a unit and the last write
// wins; there is no merge or conflict detection.
package gateway

import (
	"context"
	"errors"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/parse"
)

var (
	// ErrNotFound means the user has no saved document yet.
	ErrNotFound = errors.New("no saved account")
	// ErrUnavailable marks transient backend failures worth retrying.
	ErrUnavailable = errors.New("backend unavailable")
)

type Gateway interface {
	Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error)
	Save(ctx context.Context, id domain.Identity, snap domain.Snapshot) error
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, parse.ErrUnavailable)
}
