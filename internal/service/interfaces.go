package service

import (
	"context"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/identity"
)

type AuthService interface {
	State() domain.AuthState
	ProviderName() string
	Login(ctx context.Context, c identity.Credentials) (domain.Identity, error)
	Register(ctx context.Context, r identity.Registration) (domain.Identity, error)
	Current(ctx context.Context) (domain.Identity, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) (identity.PasswordReset, error)
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}
