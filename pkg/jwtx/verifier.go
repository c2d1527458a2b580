package jwtx

import "errors"

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(token string) (Claims, error)

func (f VerifierFunc) Verify(token string) (Claims, error) { return f(token) }

var (
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrMissingSubject = errors.New("jwtx: missing subject claim")
	ErrInvalidSig     = errors.New("jwtx: invalid signature")
	ErrWeakKey        = errors.New("jwtx: signing key shorter than 32 bytes")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)
