package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/worktime/internal/db"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/repository"
)

// Local keeps snapshots in the SQLite store. It is always available and
// doubles as the offline cache for the remote backends.
type Local struct {
	db  *sql.DB
	uow db.UnitOfWork
}

func NewLocal(database *sql.DB, uow db.UnitOfWork) *Local {
	return &Local{db: database, uow: uow}
}

func (l *Local) Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		meta, err := repository.NewSQLiteAccountRepo(tx).Get(ctx, id.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		sessions, err := repository.NewSQLiteSessionRepo(tx).ListByUser(ctx, id.UserID)
		if err != nil {
			return err
		}

		snap.CustomTargetHours = meta.CustomTargetHours
		snap.LastModified = meta.LastModified
		for _, s := range sessions {
			if s.IsActive {
				snap.ActiveSessions = append(snap.ActiveSessions, s)
			} else {
				snap.Sessions = append(snap.Sessions, s)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Snapshot{}, fmt.Errorf("local account %s: %w", id.UserID, ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("loading local snapshot: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

// Save replaces the stored account in a single transaction.
func (l *Local) Save(ctx context.Context, id domain.Identity, snap domain.Snapshot) error {
	all := make([]domain.Session, 0, len(snap.Sessions)+len(snap.ActiveSessions))
	all = append(all, snap.Sessions...)
	for _, s := range snap.ActiveSessions {
		s.IsActive = true
		all = append(all, s)
	}

	err := l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		meta := &repository.AccountMeta{
			UserID:            id.UserID,
			CustomTargetHours: snap.CustomTargetHours,
			LastModified:      snap.LastModified,
		}
		if err := repository.NewSQLiteAccountRepo(tx).Upsert(ctx, meta); err != nil {
			return err
		}
		return repository.NewSQLiteSessionRepo(tx).ReplaceAll(ctx, id.UserID, all)
	})
	if err != nil {
		return fmt.Errorf("saving local snapshot: %w", err)
	}
	return nil
}

// History lists stored sessions for the identity matching f. UserID in f
// is overwritten.
func (l *Local) History(ctx context.Context, id domain.Identity, f repository.SessionFilter) ([]domain.Session, error) {
	f.UserID = id.UserID
	sessions, err := repository.NewSQLiteSessionRepo(l.db).List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return sessions, nil
}
