package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/utafrali/FocusGate/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("focusgate", "info", w)
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return out
}

func TestRequestLogger_EnrichesFromContext(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).InfoContext(r.Context(), "handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
	ctx := logger.WithCorrelationID(req.Context(), "corr-7")
	ctx = WithUserID(ctx, "user-7")
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

	out := lastLine(t, &buf)
	if out["correlation_id"] != "corr-7" {
		t.Errorf("correlation_id = %v, want corr-7", out["correlation_id"])
	}
	if out["user_id"] != "user-7" {
		t.Errorf("user_id = %v, want user-7", out["user_id"])
	}
}

func TestRequestLogger_IgnoresUserHeader(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "spoofed")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if _, ok := lastLine(t, &buf)["user_id"]; ok {
		t.Error("user_id must only come from the authenticated context")
	}
}

func TestRequestLogging_SetsCorrelationHeader(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/focus-sessions", nil))

	if seen == "" {
		t.Fatal("expected a generated correlation ID in the handler context")
	}
	if rec.Header().Get(CorrelationHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(CorrelationHeader), seen)
	}
	out := lastLine(t, &buf)
	if out["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", out["status"])
	}
	if out["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", out["level"])
	}
}

func TestRequestLogging_ReusesInboundIDAndLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationHeader, "inbound-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(CorrelationHeader) != "inbound-1" {
		t.Errorf("correlation header = %q, want inbound-1", rec.Header().Get(CorrelationHeader))
	}
	if lvl := lastLine(t, &buf)["level"]; lvl != "ERROR" {
		t.Errorf("level = %v, want ERROR", lvl)
	}
}
