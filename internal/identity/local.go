package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const ProviderLocal = "local"

// Local authenticates against users registered in the SQLite store.
type Local struct {
	users  repository.UserRepo
	tokens *TokenIssuer
	cost   int
	now    func() time.Time
	log    zerolog.Logger
}

type LocalOption func(*Local)

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) LocalOption {
	return func(l *Local) { l.cost = cost }
}

func WithLocalLogger(log zerolog.Logger) LocalOption {
	return func(l *Local) { l.log = log }
}

func NewLocal(users repository.UserRepo, tokens *TokenIssuer, opts ...LocalOption) *Local {
	l := &Local{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    tokens.now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Name() string { return ProviderLocal }

func (l *Local) Login(ctx context.Context, c Credentials) (domain.Identity, error) {
	if strings.TrimSpace(c.Login) == "" || c.Password == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}
	u, err := l.users.GetByLogin(ctx, c.Login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, fmt.Errorf("looking up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		return domain.Identity{}, ErrInvalidCredentials
	}
	return l.signIn(u)
}

// Register creates the user with the email as username, as the browser
// version did, and signs them in.
func (l *Local) Register(ctx context.Context, r Registration) (domain.Identity, error) {
	if err := r.Validate(); err != nil {
		return domain.Identity{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), l.cost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hashing password: %w", err)
	}
	email := strings.TrimSpace(r.Email)
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     email,
		Email:        email,
		DisplayName:  strings.TrimSpace(r.Name),
		PasswordHash: string(hash),
		CreatedAt:    l.now().UTC(),
	}
	if err := l.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Identity{}, ErrUserExists
		}
		return domain.Identity{}, fmt.Errorf("creating user: %w", err)
	}
	return l.signIn(u)
}

func (l *Local) signIn(u *domain.User) (domain.Identity, error) {
	token, issued, err := l.tokens.IssueSession(u)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Token:       token,
		Provider:    ProviderLocal,
		SignedInAt:  issued,
	}, nil
}

func (l *Local) Verify(_ context.Context, id domain.Identity) (domain.VerifyStatus, error) {
	claims, err := l.tokens.Parse(id.Token, tokenTypeSession)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return domain.VerifyExpired, nil
	case err != nil:
		return "", err
	case claims.UserID != id.UserID:
		return "", ErrTokenInvalid
	}
	return domain.VerifyValid, nil
}

func (l *Local) Identify(_ context.Context, token string) (domain.Identity, error) {
	claims, err := l.tokens.Parse(token, tokenTypeSession)
	if err != nil {
		return domain.Identity{}, err
	}
	id := domain.Identity{
		UserID:      claims.UserID,
		Username:    claims.Username,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Token:       token,
		Provider:    ProviderLocal,
	}
	if claims.IssuedAt != nil {
		id.SignedInAt = claims.IssuedAt.Time
	}
	return id, nil
}

// Logout is a no-op: tokens are stateless and the caller forgets them.
func (l *Local) Logout(context.Context, domain.Identity) error { return nil }

func (l *Local) RequestPasswordReset(ctx context.Context, email string) (PasswordReset, error) {
	u, err := l.users.GetByLogin(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PasswordReset{}, ErrInvalidCredentials
		}
		return PasswordReset{}, fmt.Errorf("looking up user: %w", err)
	}
	token, err := l.tokens.IssueReset(u)
	if err != nil {
		return PasswordReset{}, err
	}
	l.log.Info().Str("user_id", u.ID).Msg("password reset requested")
	return PasswordReset{
		Message: fmt.Sprintf("Reset token issued for %s, valid for %s.", u.Email, resetTokenTTL),
		Token:   token,
	}, nil
}

func (l *Local) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	claims, err := l.tokens.Parse(token, tokenTypeReset)
	if err != nil {
		return ErrInvalidResetToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), l.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := l.users.UpdatePassword(ctx, claims.UserID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}
