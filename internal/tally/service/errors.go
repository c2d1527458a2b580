package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/internal/tally/domain"
)

// Error categories. Every error a service returns on purpose wraps exactly
// one of these, and the HTTP layer maps them to status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrMalformedToken      = fmt.Errorf("%w: token could not be decoded", ErrInvalidToken)
	ErrMissingSubjectClaim = fmt.Errorf("%w: token has no subject claim", ErrInvalidToken)

	// Login failures share one error so callers cannot tell which part was wrong.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrInvalidRefresh     = fmt.Errorf("%w: refresh token is invalid, expired or revoked", ErrUnauthorized)

	ErrUsernameTaken     = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrEmailTaken        = fmt.Errorf("%w: email already taken", ErrConflict)
	ErrCategoryExists    = fmt.Errorf("%w: category already exists", ErrConflict)
	ErrAlreadyRegistered = fmt.Errorf("%w: %w", ErrConflict, domain.ErrAlreadyRegistered)

	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category not found", ErrNotFound)
	ErrExpenseNotFound  = fmt.Errorf("%w: expense not found", ErrNotFound)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// requireID checks that id is a well-formed UUID.
func requireID(field, id string) error {
	if id == "" {
		return validationError("%s is required", field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return validationError("%s %q is not a valid id", field, id)
	}
	return nil
}
