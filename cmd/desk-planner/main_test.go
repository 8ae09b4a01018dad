package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hapkiduki/desk-planner/internal/infrastructure/config"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/logging"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.RateLimit.Enabled = false

	log := logging.New(nil)
	repo := memory.NewMonitorRepository()
	sceneGraph := scene.NewMemory()
	svc, err := newLayoutService(cfg, repo, sceneGraph, log)
	require.NoError(t, err)
	return newRouter(cfg, svc, repo, sceneGraph, log)
}

func TestRouter_HealthAndHeaders(t *testing.T) {
	h := testRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), "0 monitors")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, version, rec.Header().Get("X-API-Version"))
}

func TestRouter_EndToEnd(t *testing.T) {
	h := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitors", strings.NewReader(`{"spec":{"size":32}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), "1 nodes")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/monitors", strings.NewReader(`name=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_NotFound(t *testing.T) {
	h := testRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
}
