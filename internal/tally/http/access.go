package http

import (
	"net/http"

	"github.com/tallyhq/tally/pkg/httpx"
	"github.com/tallyhq/tally/pkg/slogx"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

// RequireUserMatch rejects requests whose userId query parameter names a
// user other than the token subject. It must run after AuthnMiddleware.
func RequireUserMatch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := httpx.UserIDFromContext(r.Context())
		if !ok {
			tallysdk.ErrUnauthorized.WithDescription("Authentication required").WriteError(w)
			return
		}

		if q := r.URL.Query().Get("userId"); q != "" && q != subject {
			slogx.FromContext(r.Context()).Warn("userId does not match token subject",
				"user_id", q,
				"subject", subject,
			)
			tallysdk.ErrForbidden.WriteError(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(slogx.WithUserID(r.Context(), subject)))
	})
}

// actingUser returns the user a secured request acts for. RequireUserMatch
// has already checked that it equals any userId query parameter.
func actingUser(r *http.Request) string {
	subject, _ := httpx.UserIDFromContext(r.Context())
	return subject
}
