package domain

import (
	"errors"
	"time"
)

// UserKind tracks where an account sits in the Guest -> Registered lifecycle.
type UserKind string

const (
	UserKindGuest      UserKind = "guest"
	UserKindRegistered UserKind = "registered"
)

// ErrAlreadyRegistered is returned when upgrading an account that is not a guest.
var ErrAlreadyRegistered = errors.New("domain: user already registered")

type User struct {
	ID           string
	Username     string // lowercase
	Email        string // lowercase
	PasswordHash string // argon2 encoded, never serialised
	Kind         UserKind
	CreatedAt    time.Time
}

// IsGuest reports whether the account was created by a guest login and has
// not been upgraded yet.
func (u User) IsGuest() bool { return u.Kind == UserKindGuest }

// Upgrade binds a guest account to real credentials. The id is preserved,
// everything else is replaced and the account becomes registered.
func (u User) Upgrade(username, email, passwordHash string, now time.Time) (User, error) {
	if !u.IsGuest() {
		return User{}, ErrAlreadyRegistered
	}

	u.Username = username
	u.Email = email
	u.PasswordHash = passwordHash
	u.Kind = UserKindRegistered
	u.CreatedAt = now.UTC()
	return u, nil
}
