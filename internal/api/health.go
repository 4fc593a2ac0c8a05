package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"airtracker/panel/internal/models/dtos/responses"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheckHandler handles GET /healthCheck
//
// Every registered check runs with a short timeout; the overall status is "down"
// as soon as one of them fails, and the response code follows it.
func HealthCheckHandler(checks map[string]Checker, upSince time.Time) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		services := make(map[string]responses.ServiceStatus, len(names))
		overallStatus := "ok"
		for _, name := range names {
			detail, err := checks[name](ctx)
			status := "ok"
			if err != nil {
				status = "down"
				detail = err.Error()
				overallStatus = "down"
			}
			services[name] = responses.ServiceStatus{Status: status, Details: detail}
		}

		resp := responses.HealthCheckResponse{
			Status:   overallStatus,
			Services: services,
			UpSince:  upSince.UTC(),
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
