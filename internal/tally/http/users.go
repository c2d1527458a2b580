package http

import (
	"net/http"

	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/pkg/httpx"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

type UsersHandler struct {
	SessionService *service.SessionService
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Create a registered account and sign it in. Username and email are stored lowercase and must be unique.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tallysdk.RegisterRequest	true	"Registration request"
//	@Success		200		{object}	tallysdk.AuthResponse		"message, user, token, refreshToken"
//	@Failure		400		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		409		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError			"error, error_description"
//	@Router			/users/register [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.SessionService.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeServiceError(w, r, "register", err)
		return
	}
	writeAuthResult(w, "User registered successfully", res)
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchange username and password for an access and refresh token. Guest accounts cannot log in.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tallysdk.LoginRequest	true	"Login request"
//	@Success		200		{object}	tallysdk.AuthResponse	"message, user, token, refreshToken"
//	@Failure		400		{object}	tallysdk.APIError		"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError		"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError		"error, error_description"
//	@Router			/users/login [post].
func (h *UsersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.SessionService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}
	writeAuthResult(w, "Login successful", res)
}

// HandleGuest godoc
//
//	@Summary		Guest login
//	@Description	Create a guest account with generated credentials and sign it in. The account can later be upgraded with /users/registerGuest.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	tallysdk.AuthResponse	"message, user, token, refreshToken"
//	@Failure		500	{object}	tallysdk.APIError		"error, error_description"
//	@Router			/users/guest [post].
func (h *UsersHandler) HandleGuest(w http.ResponseWriter, r *http.Request) {
	res, err := h.SessionService.Guest(r.Context())
	if err != nil {
		writeServiceError(w, r, "guest login", err)
		return
	}
	writeAuthResult(w, "Logged in as guest", res)
}

// HandleUpgradeGuest godoc
//
//	@Summary		Upgrade guest
//	@Description	Give the guest account named by userId real credentials. The id is kept, so existing expenses and categories stay attached.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			userId	query		string						true	"Guest user id"
//	@Param			request	body		tallysdk.RegisterRequest	true	"New credentials"
//	@Success		200		{object}	tallysdk.UserResponse		"message, user"
//	@Failure		400		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		403		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		404		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		409		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError			"error, error_description"
//	@Security		BearerAuth
//	@Router			/users/registerGuest [patch].
func (h *UsersHandler) HandleUpgradeGuest(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.SessionService.UpgradeGuest(r.Context(), actingUser(r), req.Username, req.Password, req.Email)
	if err != nil {
		writeServiceError(w, r, "upgrade guest", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tallysdk.UserResponse{
		Message: "Guest account registered successfully",
		User:    toUser(u),
	})
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revoke a refresh token. Access tokens stay valid until they expire.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tallysdk.LogoutRequest		true	"Logout request"
//	@Success		200		{object}	tallysdk.MessageResponse	"message"
//	@Failure		400		{object}	tallysdk.APIError			"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError			"error, error_description"
//	@Router			/users/logout [post].
func (h *UsersHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.SessionService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, "logout", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tallysdk.MessageResponse{Message: "Logout successful"})
}

func writeAuthResult(w http.ResponseWriter, msg string, res service.AuthResult) {
	httpx.WriteJSON(w, http.StatusOK, tallysdk.AuthResponse{
		Message:      msg,
		User:         toUser(res.User),
		Token:        res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}
