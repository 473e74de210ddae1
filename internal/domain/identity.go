package domain

import "time"

// Identity is a signed-in user as reported by an identity provider.
type Identity struct {
	UserID      string
	Username    string
	Email       string
	DisplayName string
	Token       string
	Provider    string
	SignedInAt  time.Time
}

// Label returns the best human-readable name for the identity.
func (i Identity) Label() string {
	return CoalesceStr(i.DisplayName, i.Username, i.Email, "User")
}

// User is a locally registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}
