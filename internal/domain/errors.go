package domain

import "errors"

var (
	ErrNotFound           = errors.New("session not found")
	ErrInvalidOrdering    = errors.New("check-out must be after check-in")
	ErrInvalidDuration    = errors.New("duration must be between 0.25 and 12 hours")
	ErrInvalidTarget      = errors.New("target hours must be between 0 and 24")
	ErrInvalidSessionType = errors.New("invalid session type")
	ErrMissingCheckIn     = errors.New("check-in time is required")
)

// IsValidation reports whether err is a rejected-input error that leaves
// account state unchanged.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidOrdering) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrInvalidSessionType) ||
		errors.Is(err, ErrMissingCheckIn)
}
