package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battle-arena/internal/handler"
	"github.com/battle-arena/internal/middleware"
)

func TestHealth(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "abc123", body["commit"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	hh := handler.NewHealthHandler(handler.BuildInfo{Version: "test"}, func(context.Context) error {
		return errors.New("connection refused")
	})
	h := newHarness(t, false)
	h.router.GET("/health-down", hh.Health)

	w := h.do(http.MethodGet, "/health-down", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, false)
	h.do(http.MethodGet, "/api/hof", nil)
	h.do(http.MethodPost, "/api/token", nil, withBasic("ghost", "nope"))

	w := h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `arena_http_requests_total{method="GET",route="/api/hof",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "arena_login_failures_total 1")
}

func TestRequestIDAndCORS(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodGet, "/api/hof", nil, func(r *http.Request) {
		r.Header.Set(middleware.HeaderRequestID, "req-42")
	})
	assert.Equal(t, "req-42", w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = h.do(http.MethodGet, "/api/hof", nil)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	req := httptest.NewRequest(http.MethodOptions, "/api/characters", nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBasePath(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodGet, "/hof", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "routes live under the base path")
}
