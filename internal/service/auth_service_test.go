package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/alexanderramin/worktime/internal/parse"
	"github.com/alexanderramin/worktime/internal/repository"
	"github.com/alexanderramin/worktime/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc   AuthService
	store *identity.Store
	now   *time.Time
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	secret, err := identity.LoadOrCreateSecret(context.Background(), repository.NewSQLiteSettingsRepo(database))
	require.NoError(t, err)
	provider := identity.NewLocal(
		repository.NewSQLiteUserRepo(database),
		identity.NewTokenIssuer(secret, time.Hour, clock),
		identity.WithBcryptCost(bcrypt.MinCost),
	)
	store := identity.NewStore(repository.NewSQLiteAuthSessionRepo(database))
	svc := NewAuthService(provider, store, identity.NewFlow(0, clock), zerolog.Nop())
	return authFixture{svc: svc, store: store, now: &now}
}

var registration = identity.Registration{Name: "Ada", Email: "ada@example.com", Password: "secret1"}

func TestAuthService_RegisterLoginLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	assert.Equal(t, domain.AuthUnauthenticated, f.svc.State())

	reg, err := f.svc.Register(ctx, registration)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthAuthenticated, f.svc.State())

	current, err := f.svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, current.UserID)

	require.NoError(t, f.svc.Logout(ctx))
	assert.Equal(t, domain.AuthUnauthenticated, f.svc.State())
	_, err = f.svc.Current(ctx)
	assert.ErrorIs(t, err, identity.ErrNotSignedIn)

	_, err = f.svc.Login(ctx, identity.Credentials{Login: "ada@example.com", Password: "bad"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Equal(t, domain.AuthFailed, f.svc.State())

	id, err := f.svc.Login(ctx, identity.Credentials{Login: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, id.UserID)
	require.NoError(t, f.svc.Logout(ctx))
	require.NoError(t, f.svc.Logout(ctx), "logging out twice is harmless")
}

func TestAuthService_CurrentSignsOutExpiredIdentity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registration)
	require.NoError(t, err)

	*f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.Current(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, domain.AuthUnauthenticated, f.svc.State())

	_, err = f.store.Current(ctx)
	assert.ErrorIs(t, err, identity.ErrNotSignedIn, "expired identity removed from storage")
}

func TestAuthService_CurrentSignsOutRejectedIdentity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	id, err := f.svc.Register(ctx, registration)
	require.NoError(t, err)

	id.Token += "tampered"
	require.NoError(t, f.store.Save(ctx, id))

	_, err = f.svc.Current(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, domain.AuthUnauthenticated, f.svc.State())

	_, err = f.store.Current(ctx)
	assert.ErrorIs(t, err, identity.ErrNotSignedIn, "rejected identity removed from storage")
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registration)
	require.NoError(t, err)

	reset, err := f.svc.RequestPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.CompletePasswordReset(ctx, reset.Token, "changed1"))

	_, err = f.svc.Login(ctx, identity.Credentials{Login: "ada@example.com", Password: "changed1"})
	assert.NoError(t, err)
}

// offlineProvider cannot reach its backend for verification.
type offlineProvider struct{}

func (offlineProvider) Name() string { return "offline" }
func (offlineProvider) Login(context.Context, identity.Credentials) (domain.Identity, error) {
	return domain.Identity{}, parse.ErrUnavailable
}
func (offlineProvider) Register(context.Context, identity.Registration) (domain.Identity, error) {
	return domain.Identity{}, parse.ErrUnavailable
}
func (offlineProvider) Verify(context.Context, domain.Identity) (domain.VerifyStatus, error) {
	return "", fmt.Errorf("verifying: %w", parse.ErrUnavailable)
}
func (offlineProvider) Identify(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, parse.ErrUnavailable
}
func (offlineProvider) Logout(context.Context, domain.Identity) error { return parse.ErrUnavailable }
func (offlineProvider) RequestPasswordReset(context.Context, string) (identity.PasswordReset, error) {
	return identity.PasswordReset{}, parse.ErrUnavailable
}

func TestAuthService_OfflineKeepsStoredIdentity(t *testing.T) {
	store := identity.NewStore(repository.NewSQLiteAuthSessionRepo(testutil.NewTestDB(t)))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.Identity{UserID: "u1", Username: "ada", Token: "r:abc", Provider: "offline"}))

	svc := NewAuthService(offlineProvider{}, store, nil, zerolog.Nop())
	id, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, domain.AuthAuthenticated, svc.State())

	assert.ErrorIs(t, svc.CompletePasswordReset(ctx, "tok", "newpass"), ErrResetUnsupported)

	require.NoError(t, svc.Logout(ctx), "provider failures do not block local sign-out")
	_, err = store.Current(ctx)
	assert.ErrorIs(t, err, identity.ErrNotSignedIn)
}
