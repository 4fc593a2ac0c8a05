package middleware

import (
	"net/http"
	"time"

	"airtracker/panel/internal/logging"
)

// Logging dumps each request with its headers at debug level. Only mounted in
// development.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.With("request_id", GetRequestID(r.Context()))
		log.Debugw("→ request", "method", r.Method, "url", r.URL.String(), "remote", r.RemoteAddr, "headers", r.Header)

		lw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(lw, r)

		log.Debugw("← response", "status", lw.statusCode, "status_text", http.StatusText(lw.statusCode), "duration", time.Since(start).String())
	})
}
