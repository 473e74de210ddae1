// Package parse is a thin REST client for Parse Server (Back4App
// compatible) shared by the remote gateway and the remote identity
// provider.
package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrUnavailable marks transport failures and 5xx responses. Callers
	// treat it as transient.
	ErrUnavailable = errors.New("parse server unavailable")
	// ErrInvalidSession is returned when the session token was rejected.
	ErrInvalidSession = errors.New("parse session token rejected")
)

// Parse Server error codes used by this package's callers.
const (
	CodeConnectionFailed    = 100
	CodeObjectNotFound      = 101
	CodeInvalidEmail        = 125
	CodeUsernameTaken       = 202
	CodeEmailTaken          = 203
	CodeInvalidSessionToken = 209
)

// Error is the JSON error body returned by Parse Server.
type Error struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error %d (http %d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Code == CodeInvalidSessionToken {
		return ErrInvalidSession
	}
	return nil
}

type Config struct {
	ServerURL string
	AppID     string
	RESTKey   string
	Timeout   time.Duration
}

type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ServerURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Parse-Application-Id", cfg.AppID).
		SetHeader("X-Parse-REST-API-Key", cfg.RESTKey).
		SetTimeout(timeout)
	return &Client{http: c}
}

// Request describes one Parse REST call.
type Request struct {
	Method       string
	Path         string
	SessionToken string
	Query        map[string]string
	Body         any
}

// Do executes req and decodes a successful response body into out, which
// may be nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	r := c.http.R().SetContext(ctx)
	if req.SessionToken != "" {
		r.SetHeader("X-Parse-Session-Token", req.SessionToken)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", req.Method, req.Path, ErrUnavailable, err)
	}

	status := resp.StatusCode()
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%s %s: %w: status %d", req.Method, req.Path, ErrUnavailable, status)
	}
	if status >= http.StatusBadRequest {
		perr := &Error{Status: status}
		if jerr := json.Unmarshal(resp.Body(), perr); jerr != nil || perr.Message == "" {
			perr.Message = strings.TrimSpace(resp.String())
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, perr)
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.Path, err)
	}
	return nil
}

// Pointer is a Parse object reference.
type Pointer struct {
	Type      string `json:"__type"`
	ClassName string `json:"className"`
	ObjectID  string `json:"objectId"`
}

func UserPointer(objectID string) Pointer {
	return Pointer{Type: "Pointer", ClassName: "_User", ObjectID: objectID}
}

// Date is the Parse encoding of a timestamp field.
type Date struct {
	Type string `json:"__type"`
	ISO  string `json:"iso"`
}

func NewDate(t time.Time) Date {
	return Date{Type: "Date", ISO: t.UTC().Format("2006-01-02T15:04:05.000Z")}
}

// Where encodes a constraint map as the JSON "where" query parameter.
func Where(constraints map[string]any) (string, error) {
	b, err := json.Marshal(constraints)
	if err != nil {
		return "", fmt.Errorf("encoding where clause: %w", err)
	}
	return string(b), nil
}
