package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (e *testEnv) readiness() (int, readiness) {
	e.t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	var body readiness
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthCheck(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Forum API is running", body["message"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestLivenessCheck(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadinessCheck(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		e := newTestEnv(t)
		status, body := e.readiness()
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, map[string]string{
			"database": "healthy",
			"redis":    "healthy",
			"search":   "disabled",
			"ai":       "disabled",
		}, body.Checks)
	})

	t.Run("redis down", func(t *testing.T) {
		e := newTestEnv(t)
		e.redis.Close()
		status, body := e.readiness()
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unhealthy", body.Checks["redis"])
	})

	t.Run("redis not configured", func(t *testing.T) {
		e := newTestEnv(t, func(d *Deps) { d.Redis = nil })
		status, body := e.readiness()
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "disabled", body.Checks["redis"])
	})

	t.Run("unhealthy index only degrades", func(t *testing.T) {
		e := newTestEnv(t, func(d *Deps) { d.Search = &fakeIndex{healthy: false} })
		status, body := e.readiness()
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "degraded", body.Checks["search"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	_, _ = e.do(http.MethodGet, "/api/health", nil, "")

	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
