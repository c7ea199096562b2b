package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
)

// ReadyzHandler is the readiness probe. It checks the backing store and
// returns 503 while any dependency is unhealthy.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
