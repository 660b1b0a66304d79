package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return out
}

func TestNewWithWriter_TagsService(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("focusgate", "info", &buf).Info("started")

	out := decodeLine(t, &buf)
	if got := out["service"]; got != "focusgate" {
		t.Errorf("service = %v, want %q", got, "focusgate")
	}
	if got := out["msg"]; got != "started" {
		t.Errorf("msg = %v, want %q", got, "started")
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("focusgate", "warn", &buf)
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %s", buf.String())
	}
	l.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn record not written at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContext_AllFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("focusgate", "info", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithUserID(ctx, "user-1")

	WithContext(ctx, l).Info("enriched")

	out := decodeLine(t, &buf)
	want := map[string]string{
		"correlation_id": "corr-1",
		"user_id":        "user-1",
		"trace_id":       "4bf92f3577b34da6a3ce929d0e0e4736",
		"span_id":        "00f067aa0ba902b7",
	}
	for k, v := range want {
		if out[k] != v {
			t.Errorf("%s = %v, want %q", k, out[k], v)
		}
	}
}

func TestWithContext_NothingToAdd(t *testing.T) {
	l := Discard()
	if got := WithContext(context.Background(), l); got != l {
		t.Error("expected the same logger back when the context carries no fields")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected slog.Default() for a bare context")
	}

	l := Discard()
	if FromContext(NewContext(context.Background(), l)) != l {
		t.Error("expected the stored logger")
	}
}
