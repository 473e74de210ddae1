package parse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{ServerURL: srv.URL + "/", AppID: "app", RESTKey: "rest", Timeout: 2 * time.Second})
}

func TestClient_Do_SendsHeadersAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app", r.Header.Get("X-Parse-Application-Id"))
		assert.Equal(t, "rest", r.Header.Get("X-Parse-REST-API-Key"))
		assert.Equal(t, "tok", r.Header.Get("X-Parse-Session-Token"))
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]string{"objectId": "u1"})
	})

	var out struct {
		ObjectID string `json:"objectId"`
	}
	err := c.Do(context.Background(), Request{
		Method:       http.MethodGet,
		Path:         "/users/me",
		SessionToken: "tok",
		Query:        map[string]string{"limit": "1"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "u1", out.ObjectID)
}

func TestClient_Do_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantIs   error
		wantCode int
	}{
		{"server error", http.StatusBadGateway, "bad gateway", ErrUnavailable, 0},
		{"invalid session", http.StatusBadRequest, `{"code":209,"error":"invalid session token"}`, ErrInvalidSession, CodeInvalidSessionToken},
		{"username taken", http.StatusBadRequest, `{"code":202,"error":"Account already exists for this username."}`, nil, CodeUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/users"}, nil)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantCode != 0 {
				var perr *Error
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, tt.wantCode, perr.Code)
			}
		})
	}
}

func TestClient_Do_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{ServerURL: url, Timeout: time.Second})
	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/health"}, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWhere(t *testing.T) {
	w, err := Where(map[string]any{"user": UserPointer("u1")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":{"__type":"Pointer","className":"_User","objectId":"u1"}}`, w)
}
