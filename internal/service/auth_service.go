package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/gateway"
	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/rs/zerolog"
)

var (
	ErrSessionExpired   = errors.New("your session has expired, please sign in again")
	ErrResetUnsupported = errors.New("this identity provider completes password resets by email")
)

type authService struct {
	provider identity.Provider
	store    *identity.Store
	flow     *identity.Flow
	log      zerolog.Logger
	observer UseCaseObserver
}

func NewAuthService(
	provider identity.Provider,
	store *identity.Store,
	flow *identity.Flow,
	log zerolog.Logger,
	observers ...UseCaseObserver,
) AuthService {
	if flow == nil {
		flow = identity.NewFlow(identity.DefaultAuthGuard, nil)
	}
	return &authService{
		provider: provider,
		store:    store,
		flow:     flow,
		log:      log.With().Str("component", "auth").Str("provider", provider.Name()).Logger(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *authService) State() domain.AuthState { return s.flow.State() }

func (s *authService) ProviderName() string { return s.provider.Name() }

func (s *authService) observe(ctx context.Context, name string, startedAt time.Time, err error) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"provider": s.provider.Name()},
	})
}

func (s *authService) Login(ctx context.Context, c identity.Credentials) (id domain.Identity, err error) {
	defer func(startedAt time.Time) { s.observe(ctx, "login", startedAt, err) }(time.Now())

	id, err = s.flow.Run(ctx, func(ctx context.Context) (domain.Identity, error) {
		return s.provider.Login(ctx, c)
	})
	if err != nil {
		return domain.Identity{}, err
	}
	if err = s.store.Save(ctx, id); err != nil {
		return domain.Identity{}, fmt.Errorf("storing identity: %w", err)
	}
	return id, nil
}

func (s *authService) Register(ctx context.Context, r identity.Registration) (id domain.Identity, err error) {
	defer func(startedAt time.Time) { s.observe(ctx, "register", startedAt, err) }(time.Now())

	id, err = s.flow.Run(ctx, func(ctx context.Context) (domain.Identity, error) {
		return s.provider.Register(ctx, r)
	})
	if err != nil {
		return domain.Identity{}, err
	}
	if err = s.store.Save(ctx, id); err != nil {
		return domain.Identity{}, fmt.Errorf("storing identity: %w", err)
	}
	return id, nil
}

// Current returns the stored identity after checking it with the provider.
// An expired or rejected identity is signed out. When the provider cannot be reached
// the stored identity is trusted so the tracker keeps working offline.
func (s *authService) Current(ctx context.Context) (domain.Identity, error) {
	id, err := s.store.Current(ctx)
	if err != nil {
		return domain.Identity{}, err
	}

	status, err := s.provider.Verify(ctx, id)
	switch {
	case err != nil && gateway.IsTransient(err):
		s.log.Warn().Err(err).Msg("cannot verify identity, continuing offline")
		s.flow.Restore()
		return id, nil
	case errors.Is(err, identity.ErrTokenInvalid), err == nil && status == domain.VerifyExpired:
		s.log.Info().Str("user_id", id.UserID).Str("status", string(status)).Msg("stored identity no longer accepted")
		if err := s.signOut(ctx); err != nil {
			s.log.Error().Err(err).Msg("signing out stored identity")
		}
		return domain.Identity{}, ErrSessionExpired
	case err != nil:
		return domain.Identity{}, fmt.Errorf("verifying identity: %w", err)
	}
	s.flow.Restore()
	return id, nil
}

func (s *authService) Logout(ctx context.Context) (err error) {
	defer func(startedAt time.Time) { s.observe(ctx, "logout", startedAt, err) }(time.Now())

	id, err := s.store.Current(ctx)
	if errors.Is(err, identity.ErrNotSignedIn) {
		s.flow.SignOut()
		return nil
	}
	if err != nil {
		return err
	}
	if lerr := s.provider.Logout(ctx, id); lerr != nil {
		s.log.Warn().Err(lerr).Msg("provider logout failed, clearing local identity anyway")
	}
	return s.signOut(ctx)
}

func (s *authService) signOut(ctx context.Context) error {
	s.flow.SignOut()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing identity: %w", err)
	}
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (identity.PasswordReset, error) {
	return s.provider.RequestPasswordReset(ctx, email)
}

func (s *authService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	completer, ok := s.provider.(identity.ResetCompleter)
	if !ok {
		return ErrResetUnsupported
	}
	return completer.CompletePasswordReset(ctx, token, newPassword)
}
