package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"airtracker/panel/internal/metrics"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
	})
}

func TestMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	reg := metrics.NewMetricsRegistry()
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(reg))
	r.Get("/api/v1/state", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("/api/v1/state", "GET", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.HTTPRequestsInFlight.WithLabelValues("all")))
}

func TestStatusRecorder_ImplicitOK(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr, statusCode: 0}
	_, _ = rec.Write([]byte("hi"))
	rec.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, rec.statusCode)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/frame.png", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.5:4000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.5:4001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.5:4002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.6:4000"), "buckets are per client")

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("127.0.0.1:5000"), "loopback is never limited")
	}
}
