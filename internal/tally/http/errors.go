package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/pkg/slogx"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

// writeServiceError maps a service error onto the API error envelope. The
// sentinel's text becomes the description; anything unrecognised is logged
// and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var apiErr *tallysdk.APIError
	switch {
	case errors.Is(err, service.ErrValidation):
		apiErr = tallysdk.ErrInvalidRequest.WithDescription(err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = tallysdk.ErrInvalidToken.WithDescription(err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apiErr = tallysdk.ErrUnauthorized.WithDescription(err.Error())
	case errors.Is(err, service.ErrNotFound):
		apiErr = tallysdk.ErrNotFound.WithDescription(err.Error())
	case errors.Is(err, service.ErrConflict):
		apiErr = tallysdk.ErrConflict.WithDescription(err.Error())
	default:
		slogx.FromContext(r.Context()).Error(op+" failed", "err", err)
		apiErr = tallysdk.ErrServerError
	}
	apiErr.WriteError(w)
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		tallysdk.ErrInvalidRequest.WithDescription("Invalid JSON body").WriteError(w)
		return false
	}
	return true
}
