package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/rs/zerolog"
)

// Cached fronts a remote gateway with the local store. Saves always land
// locally first; loads prefer the remote copy and fall back to the local
// one while the remote is unreachable.
type Cached struct {
	local  Gateway
	remote Gateway
	log    zerolog.Logger
	status func(domain.Identity, domain.SyncStatus)
}

type CachedOption func(*Cached)

func WithLogger(l zerolog.Logger) CachedOption {
	return func(c *Cached) { c.log = l }
}

// WithStatusHook receives SyncOffline when a load falls back to the cache.
func WithStatusHook(fn func(domain.Identity, domain.SyncStatus)) CachedOption {
	return func(c *Cached) { c.status = fn }
}

func NewCached(local, remote Gateway, opts ...CachedOption) *Cached {
	c := &Cached{
		local:  local,
		remote: remote,
		log:    zerolog.Nop(),
		status: func(domain.Identity, domain.SyncStatus) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error) {
	snap, err := c.remote.Load(ctx, id)
	switch {
	case err == nil:
		if cerr := c.local.Save(ctx, id, snap); cerr != nil {
			c.log.Warn().Err(cerr).Str("user_id", id.UserID).Msg("refreshing local cache failed")
		}
		return snap, nil

	case errors.Is(err, ErrNotFound):
		// Nothing remote yet; keep anything recorded while offline.
		local, lerr := c.local.Load(ctx, id)
		if lerr != nil {
			return domain.Snapshot{}, err
		}
		return local, nil

	case IsTransient(err):
		c.log.Warn().Err(err).Str("user_id", id.UserID).Msg("remote unreachable, using local cache")
		local, lerr := c.local.Load(ctx, id)
		if lerr != nil {
			if errors.Is(lerr, ErrNotFound) {
				return domain.Snapshot{}, err
			}
			return domain.Snapshot{}, fmt.Errorf("loading local cache: %w", lerr)
		}
		c.status(id, domain.SyncOffline)
		return local, nil

	default:
		return domain.Snapshot{}, err
	}
}

func (c *Cached) Save(ctx context.Context, id domain.Identity, snap domain.Snapshot) error {
	if err := c.local.Save(ctx, id, snap); err != nil {
		return err
	}
	if err := c.remote.Save(ctx, id, snap); err != nil {
		return fmt.Errorf("saved locally, remote save failed: %w", err)
	}
	return nil
}
