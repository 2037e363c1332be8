package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tenantguard/tenantguard/internal/tracing"
)

func TestWithLoggingTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(cfg tracing.Config, traceID *string) *gin.Engine {
		router := gin.New()
		router.Use(WithLoggingTracing(cfg))
		router.GET("/ping", func(c *gin.Context) {
			if id, ok := tracing.GetTraceID(c.Request.Context()); ok {
				*traceID = id
			}

			c.Status(http.StatusOK)
		})

		return router
	}

	t.Run("uses trace id from header", func(t *testing.T) {
		var traceID string

		router := newRouter(tracing.Config{}, &traceID)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("TG-Trace-Id", "trace-from-client")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, "trace-from-client", traceID)
		require.NotEmpty(t, w.Header().Get("TG-Request-Id"))
	})

	t.Run("generates trace id when header absent", func(t *testing.T) {
		var traceID string

		router := newRouter(tracing.Config{}, &traceID)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.NotEmpty(t, traceID)
		require.Contains(t, traceID, "tg-")
	})

	t.Run("custom header names", func(t *testing.T) {
		var traceID string

		router := newRouter(tracing.Config{TraceHeader: "X-Trace", RequestHeader: "X-Request"}, &traceID)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Trace", "custom-trace")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, "custom-trace", traceID)
		require.NotEmpty(t, w.Header().Get("X-Request"))
	})
}
