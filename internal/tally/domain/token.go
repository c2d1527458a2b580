package domain

import "time"

// TokenPair is what every session-creating operation hands back: a short-lived
// access token (JWT) and a persisted refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken models the stored refresh token record in the DB.
type RefreshToken struct {
	ID        string // ULID
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// ValidAt reports whether the row still authorises a refresh at t. Expiry is
// exclusive: a token is dead at exactly ExpiresAt.
func (t RefreshToken) ValidAt(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
