package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hapkiduki/desk-planner/internal/application/dto"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/logging"
	"github.com/hapkiduki/desk-planner/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.APIResponse[any] {
	t.Helper()
	var resp dto.APIResponse[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", seen)
}

func TestLogger_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logging.New(logger.FromZap(zap.New(core)))

	h := RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		ok(w, r)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fine", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.EqualValues(t, 2, fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := Recoverer(logging.New(logger.FromZap(zap.New(core))))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Error.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestRateLimiter(t *testing.T) {
	h := RateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2})(http.HandlerFunc(ok))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1002").Code)

	// A new source port is the same client.
	limited := call("10.0.0.1:1003")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, limited).Error.Code)

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.3").Code)
}

func TestClientIP(t *testing.T) {
	cases := map[string]string{
		"10.0.0.1:5555":    "10.0.0.1",
		"[2001:db8::1]:80": "2001:db8::1",
		"203.0.113.7":      "203.0.113.7",
	}
	for addr, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		assert.Equal(t, want, ClientIP(req), addr)
	}
}

func TestClientLimiters_EvictsIdleClients(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clients := newClientLimiters(RateLimiterConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		IdleTimeout:       time.Minute,
	}, func() time.Time { return clock })

	a := clients.get("a")
	clients.get("b")
	assert.Equal(t, 2, clients.len())
	assert.Same(t, a, clients.get("a"))

	clock = clock.Add(30 * time.Second)
	clients.get("a")

	clock = clock.Add(45 * time.Second)
	clients.get("c")
	assert.Equal(t, 2, clients.len(), "b was idle for 75s and is dropped")
	assert.Same(t, a, clients.get("a"), "a was seen 45s ago and is kept")
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(ok))

	cases := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"get passes", http.MethodGet, "", "", http.StatusOK},
		{"json body", http.MethodPost, `{}`, "application/json", http.StatusOK},
		{"json with charset", http.MethodPut, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"empty post", http.MethodPost, "", "", http.StatusOK},
		{"form body", http.MethodPost, "a=b", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing type", http.MethodPost, `{}`, "", http.StatusUnsupportedMediaType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHeaders(t *testing.T) {
	h := SecureHeaders(APIVersion("v-test")(http.HandlerFunc(ok)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "v-test", rec.Header().Get("X-API-Version"))
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = r.Body.Read(make([]byte, 16))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Error(t, readErr)
}
