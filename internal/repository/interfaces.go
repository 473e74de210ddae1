package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
)

// AccountMeta is the scalar part of an account document; sessions live in
// their own table.
type AccountMeta struct {
	UserID            string
	CustomTargetHours float64
	LastModified      *time.Time
}

// SessionFilter narrows a history listing. Zero fields are ignored. From is
// inclusive and To exclusive, both on check-in time.
type SessionFilter struct {
	UserID     string
	From       *time.Time
	To         *time.Time
	Type       domain.SessionType
	Active     *bool
	ManualOnly bool
	Limit      uint64
}

type AccountRepo interface {
	Get(ctx context.Context, userID string) (*AccountMeta, error)
	Upsert(ctx context.Context, m *AccountMeta) error
	Delete(ctx context.Context, userID string) error
}

type SessionRepo interface {
	ReplaceAll(ctx context.Context, userID string, sessions []domain.Session) error
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	List(ctx context.Context, f SessionFilter) ([]domain.Session, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByLogin matches either username or email, case-insensitively.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

type AuthSessionRepo interface {
	Get(ctx context.Context) (*domain.Identity, error)
	Save(ctx context.Context, id *domain.Identity) error
	Clear(ctx context.Context) error
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
