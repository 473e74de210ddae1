package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique username or email is taken.
	ErrConflict = errors.New("already exists")
)
