package http

import (
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/tally/cache"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/pkg/httpx"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database and category cache
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	tallysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	tallysdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	categories cache.Categories,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &tallysdk.HealthChecks{
			Database: "ok",
			Cache:    "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// The cache is optional; the Nop cache always answers.
		if err := categories.Ping(r.Context()); err != nil {
			checks.Cache = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, tallysdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
