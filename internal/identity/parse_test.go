package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParseProvider(t *testing.T, h http.HandlerFunc) *Parse {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewParse(parse.NewClient(parse.Config{ServerURL: srv.URL, AppID: "app", RESTKey: "key", Timeout: 2 * time.Second}))
}

func writeParseError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "error": msg})
}

func TestParse_Login(t *testing.T) {
	p := newParseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			writeParseError(w, parse.CodeObjectNotFound, "Invalid username/password.")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"objectId": "u1", "username": body["username"], "email": body["username"],
			"name": "Ada", "sessionToken": "r:abc",
		})
	})
	ctx := context.Background()

	id, err := p.Login(ctx, Credentials{Login: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "r:abc", id.Token)
	assert.Equal(t, "Ada", id.Label())
	assert.Equal(t, ProviderParse, id.Provider)

	_, err = p.Login(ctx, Credentials{Login: "ada@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParse_RegisterTakenEmail(t *testing.T) {
	p := newParseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeParseError(w, parse.CodeUsernameTaken, "Account already exists for this username.")
	})

	_, err := p.Register(context.Background(), ada)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestParse_RegisterUsesEmailAsUsername(t *testing.T) {
	var got map[string]string
	p := newParseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"objectId":"u9","sessionToken":"r:new","createdAt":"2026-03-10T09:00:00.000Z"}`)
	})

	id, err := p.Register(context.Background(), ada)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got["username"])
	assert.Equal(t, "Ada", got["name"])
	assert.Equal(t, "u9", id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
}

func TestParse_Verify(t *testing.T) {
	p := newParseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-Parse-Session-Token") {
		case "r:good":
			_, _ = io.WriteString(w, `{"objectId":"u1"}`)
		case "r:down":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			writeParseError(w, parse.CodeInvalidSessionToken, "Invalid session token")
		}
	})
	ctx := context.Background()

	status, err := p.Verify(ctx, domain.Identity{UserID: "u1", Token: "r:good"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyValid, status)

	status, err = p.Verify(ctx, domain.Identity{UserID: "u1", Token: "r:old"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyExpired, status)

	_, err = p.Verify(ctx, domain.Identity{UserID: "u1", Token: "r:down"})
	assert.ErrorIs(t, err, parse.ErrUnavailable)

	require.NoError(t, p.Logout(ctx, domain.Identity{Token: "r:old"}), "expired sessions log out cleanly")
}

func TestParse_RequestPasswordReset(t *testing.T) {
	var email string
	p := newParseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/requestPasswordReset", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		email = body["email"]
		_, _ = io.WriteString(w, `{}`)
	})

	reset, err := p.RequestPasswordReset(context.Background(), " ada@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
	assert.Empty(t, reset.Token)
	assert.Contains(t, reset.Message, "email sent")
}

func TestParse_Identify(t *testing.T) {
	p := newParseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		if r.Header.Get("X-Parse-Session-Token") != "r:good" {
			writeParseError(w, parse.CodeInvalidSessionToken, "Invalid session token")
			return
		}
		_, _ = io.WriteString(w, `{"objectId":"u1","username":"ada@example.com","email":"ada@example.com","name":"Ada"}`)
	})
	ctx := context.Background()

	id, err := p.Identify(ctx, "r:good")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "r:good", id.Token)

	_, err = p.Identify(ctx, "r:bad")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
