package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/logging"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(RequestIDMiddleware(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		seen = logging.RequestIDFromContext(c.Request.Context())
		c.String(http.StatusOK, "pong")
	})

	t.Run("echoes incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("generates id when missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

		rid := rr.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(rid)
		require.NoError(t, err)
		assert.Equal(t, rid, seen)
	})

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, "/ping", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestHTTPMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/issues/:project", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/issues/a", "/api/issues/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/issues/:project", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))

	expected := `
# HELP issuetracker_http_requests_total HTTP requests by method, route and status
# TYPE issuetracker_http_requests_total counter
issuetracker_http_requests_total{method="GET",route="/api/issues/:project",status="200"} 2
issuetracker_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "issuetracker_http_requests_total"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("rejects once the bucket is empty", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimitMiddleware(0.001, 2))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, rr.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimitMiddleware(0, 0))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 50; i++ {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rr.Code)
		}
	})
}
