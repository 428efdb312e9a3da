package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1234567 * time.Microsecond, "1.2s"},
		{1234567 * time.Nanosecond, "1.2ms"},
		{1234 * time.Nanosecond, "1.2µs"},
		{5 * time.Nanosecond, "5ns"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.in))
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	a := &API{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	var sawLogger, sawRequestId bool
	h := a.loggingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawLogger = getLoggerFromCtx(r.Context())
		_, sawRequestId = getRequestIdFromCtx(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))

	assert.True(t, sawLogger)
	assert.True(t, sawRequestId)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	line := buf.String()
	assert.Contains(t, line, `"msg":"Access log"`)
	assert.Contains(t, line, `"status-code":418`)
	assert.Contains(t, line, `"resp-body-size":15`)
	assert.Contains(t, line, `"request-id":`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.startSession(t, "")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "retailer_registration_wizard_sessions_active 1")
	assert.Contains(t, body, `retailer_registration_wizard_events_total{event="start"} 1`)
	assert.Contains(t, body, `retailer_registration_http_requests_total{method="POST",path="/wizard/sessions",status="201"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, NotFound, decode[Error](t, rec).Code)
}

func TestCors(t *testing.T) {
	t.Run("LOCAL allows any origin", func(t *testing.T) {
		a := &API{env: LOCAL}
		h := a.corsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/categories", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("PROD only allows configured origins", func(t *testing.T) {
		a := &API{env: PROD, config: Config{AllowedOrigins: []string{"https://retailers.example.com"}}}
		h := a.corsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		for origin, want := range map[string]string{
			"https://retailers.example.com": "https://retailers.example.com",
			"https://evil.example.com":      "",
		} {
			req := httptest.NewRequest(http.MethodGet, "/categories", nil)
			req.Header.Set("Origin", origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	})
}

func TestGetLoggerOrBaseLogger(t *testing.T) {
	base := slog.New(slog.DiscardHandler)
	scoped := slog.New(slog.DiscardHandler).With("request-id", "x")
	a := &API{logger: base}

	assert.Same(t, base, a.getLoggerOrBaseLogger(context.Background()))
	assert.Same(t, scoped, a.getLoggerOrBaseLogger(ctxWithLogger(context.Background(), scoped)))
}

func TestEnvironment(t *testing.T) {
	for in, want := range map[string]Environment{"": LOCAL, "LOCAL": LOCAL, "PROD": PROD} {
		got, err := ParseEnvironment(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		if in != "" {
			assert.Equal(t, in, got.String())
		}
	}

	_, err := ParseEnvironment("STAGING")
	assert.ErrorContains(t, err, "unknown environment")
}
