package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	e := newTestEnv(t)

	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestPasswordNeverSerialized(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		jsonBody(t, map[string]string{"name": "Secret", "email": "secret@example.com", "password": "Sup3r-Secret-Pass!"}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw := readAll(t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, raw)
	assert.NotContains(t, raw, "Sup3r-Secret-Pass!")
	assert.NotContains(t, raw, "password")
}
