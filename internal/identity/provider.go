// Package identity signs users in and out and verifies that a stored
// identity is still valid.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/repository"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("this email is already registered")
	ErrInvalidInput       = errors.New("invalid registration details")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

type Credentials struct {
	Login    string
	Password string
}

type Registration struct {
	Name     string
	Email    string
	Password string
}

// Validate applies the rules every provider shares.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return fmt.Errorf("%w: please fill in all fields", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(r.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// PasswordReset describes how a reset request was handled. Token is only
// set by providers that complete resets themselves.
type PasswordReset struct {
	Message string
	Token   string
}

type Provider interface {
	Name() string
	Login(ctx context.Context, c Credentials) (domain.Identity, error)
	Register(ctx context.Context, r Registration) (domain.Identity, error)
	Verify(ctx context.Context, id domain.Identity) (domain.VerifyStatus, error)
	// Identify resolves a bearer token to the identity it was issued to.
	Identify(ctx context.Context, token string) (domain.Identity, error)
	Logout(ctx context.Context, id domain.Identity) error
	RequestPasswordReset(ctx context.Context, email string) (PasswordReset, error)
}

// ResetCompleter is implemented by providers that accept the token from
// PasswordReset directly.
type ResetCompleter interface {
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}

// Store keeps the signed-in identity of this installation.
type Store struct {
	repo repository.AuthSessionRepo
}

func NewStore(repo repository.AuthSessionRepo) *Store {
	return &Store{repo: repo}
}

// Current returns the stored identity or ErrNotSignedIn.
func (s *Store) Current(ctx context.Context) (domain.Identity, error) {
	id, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, ErrNotSignedIn
		}
		return domain.Identity{}, fmt.Errorf("reading signed-in identity: %w", err)
	}
	return *id, nil
}

func (s *Store) Save(ctx context.Context, id domain.Identity) error {
	return s.repo.Save(ctx, &id)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
