package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLen is the shortest HMAC key NewHS256 accepts.
const MinKeyLen = 32

// HS256 signs and verifies tokens with a shared HMAC-SHA256 key. It
// implements Verifier.
type HS256 struct {
	key    []byte
	issuer string
	aud    []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now is the clock used by Verify. Defaults to time.Now.
	Now func() time.Time
}

// NewHS256 returns a signer/verifier for key. Empty or short keys are
// rejected so a misconfigured deployment fails at startup.
func NewHS256(key []byte, issuer string, audience []string) (*HS256, error) {
	if len(key) < MinKeyLen {
		return nil, ErrWeakKey
	}

	return &HS256{
		key:    append([]byte(nil), key...),
		issuer: issuer,
		aud:    audience,
		Now:    time.Now,
	}, nil
}

// Sign takes your claims and turns them into a signed JWT string.
func (h *HS256) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.key)
}

// Verify checks the signature, issuer, audience and lifetime of token.
func (h *HS256) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return h.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(h.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(h.Now().UTC(), h.Leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
