package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/parse"
)

const ProviderParse = "parse"

// Parse authenticates against a Parse Server user table.
type Parse struct {
	client *parse.Client
	now    func() time.Time
}

func NewParse(client *parse.Client) *Parse {
	return &Parse{client: client, now: time.Now}
}

func (p *Parse) Name() string { return ProviderParse }

type parseUser struct {
	ObjectID     string `json:"objectId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	SessionToken string `json:"sessionToken"`
}

func (p *Parse) identity(u parseUser) domain.Identity {
	return domain.Identity{
		UserID:      u.ObjectID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.Name,
		Token:       u.SessionToken,
		Provider:    ProviderParse,
		SignedInAt:  p.now().UTC(),
	}
}

func (p *Parse) Login(ctx context.Context, c Credentials) (domain.Identity, error) {
	login := strings.TrimSpace(c.Login)
	if login == "" || c.Password == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}
	var u parseUser
	err := p.client.Do(ctx, parse.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   map[string]string{"username": login, "password": c.Password},
	}, &u)
	if err != nil {
		return domain.Identity{}, mapParseError("login", err)
	}
	return p.identity(u), nil
}

func (p *Parse) Register(ctx context.Context, r Registration) (domain.Identity, error) {
	if err := r.Validate(); err != nil {
		return domain.Identity{}, err
	}
	email := strings.TrimSpace(r.Email)
	name := strings.TrimSpace(r.Name)

	var created parseUser
	err := p.client.Do(ctx, parse.Request{
		Method: http.MethodPost,
		Path:   "/users",
		Body: map[string]string{
			"username": email,
			"email":    email,
			"password": r.Password,
			"name":     name,
		},
	}, &created)
	if err != nil {
		return domain.Identity{}, mapParseError("register", err)
	}
	created.Username, created.Email, created.Name = email, email, name
	return p.identity(created), nil
}

func (p *Parse) Verify(ctx context.Context, id domain.Identity) (domain.VerifyStatus, error) {
	if id.Token == "" {
		return domain.VerifyExpired, nil
	}
	var me parseUser
	err := p.client.Do(ctx, parse.Request{Method: http.MethodGet, Path: "/users/me", SessionToken: id.Token}, &me)
	if err != nil {
		if errors.Is(err, parse.ErrInvalidSession) {
			return domain.VerifyExpired, nil
		}
		return "", fmt.Errorf("verifying session: %w", err)
	}
	if me.ObjectID != "" && me.ObjectID != id.UserID {
		return domain.VerifyExpired, nil
	}
	return domain.VerifyValid, nil
}

func (p *Parse) Identify(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, ErrTokenInvalid
	}
	var me parseUser
	err := p.client.Do(ctx, parse.Request{Method: http.MethodGet, Path: "/users/me", SessionToken: token}, &me)
	if err != nil {
		if errors.Is(err, parse.ErrInvalidSession) {
			return domain.Identity{}, ErrTokenInvalid
		}
		return domain.Identity{}, fmt.Errorf("identifying session: %w", err)
	}
	me.SessionToken = token
	return p.identity(me), nil
}

func (p *Parse) Logout(ctx context.Context, id domain.Identity) error {
	err := p.client.Do(ctx, parse.Request{Method: http.MethodPost, Path: "/logout", SessionToken: id.Token}, nil)
	if err != nil && !errors.Is(err, parse.ErrInvalidSession) {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

func (p *Parse) RequestPasswordReset(ctx context.Context, email string) (PasswordReset, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return PasswordReset{}, fmt.Errorf("%w: please enter your email address", ErrInvalidInput)
	}
	err := p.client.Do(ctx, parse.Request{
		Method: http.MethodPost,
		Path:   "/requestPasswordReset",
		Body:   map[string]string{"email": email},
	}, nil)
	if err != nil {
		return PasswordReset{}, mapParseError("password reset", err)
	}
	return PasswordReset{Message: "Password reset email sent! Check your inbox."}, nil
}

func mapParseError(op string, err error) error {
	var perr *parse.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case parse.CodeObjectNotFound:
			return ErrInvalidCredentials
		case parse.CodeUsernameTaken, parse.CodeEmailTaken:
			return ErrUserExists
		case parse.CodeInvalidEmail:
			return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
