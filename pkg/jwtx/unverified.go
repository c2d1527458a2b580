package jwtx

import "github.com/golang-jwt/jwt/v5"

// ParseUnverified decodes token without checking its signature or lifetime.
// Only use it where a stored record, not the signature, is the trust anchor.
func ParseUnverified(tokenStr string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}

// ExtractSubject returns the unverified "sub" claim of token.
func ExtractSubject(tokenStr string) (string, error) {
	claims, err := ParseUnverified(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
