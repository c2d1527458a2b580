package http

import (
	"net/http"

	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/pkg/httpx"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

type RefreshHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Refresh tokens
//	@Description	Trade a valid refresh token and the (possibly expired) access token it was issued with for a new token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tallysdk.TokenPair	true	"Current token pair"
//	@Success		200		{object}	tallysdk.TokenPair	"token, refreshToken"
//	@Failure		400		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError	"error, error_description"
//	@Router			/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.TokenPair
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.SessionService.RefreshAccessToken(r.Context(), req.Token, req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, "refresh", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tallysdk.TokenPair{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
