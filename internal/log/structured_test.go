package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentLedger, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	l.Info("hello", "k", "v")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStructuredLoggerRecordEvents(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	sl := NewStructuredLogger(l)
	ctx := context.Background()

	sl.LogRecordAdmitted(ctx, "sess-1", "expense", "paper", "2025-06-01", 12050)
	sl.LogRecordRejected(ctx, "sess-1", "expense", errors.New("description: missing field"))

	out := buf.String()
	for _, want := range []string{"Ledger record admitted", "amount_cents=12050", "session_id=sess-1", "Ledger record rejected", "error_type=validation_error"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestStructuredLoggerHTTPLevels(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	sl := NewStructuredLogger(l)
	r := httptest.NewRequest("GET", "/ui/summary", nil)

	sl.LogHTTPStart(r.Context(), r, "req_1", "127.0.0.1")
	if buf.Len() != 0 {
		t.Fatalf("request start is debug level, got %q", buf.String())
	}
	sl.LogHTTPEnd(r.Context(), r, "req_1", 500, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("5xx should log at error level: %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	fallback, _ := newBufferLogger(slog.LevelInfo)
	if FromContext(context.Background(), fallback) != fallback {
		t.Fatalf("expected fallback logger")
	}
	l, _ := newBufferLogger(slog.LevelInfo)
	ctx := IntoContext(context.Background(), l)
	if FromContext(ctx, fallback) != l {
		t.Fatalf("expected stored logger")
	}
}

func TestStructuredLoggerPrefersRequestLogger(t *testing.T) {
	base, baseBuf := newBufferLogger(slog.LevelInfo)
	reqLogger, reqBuf := newBufferLogger(slog.LevelInfo)
	ctx := IntoContext(context.Background(), reqLogger.With(FieldRequestID, "req_42"))

	sl := NewStructuredLogger(base)
	sl.LogRecordAdmitted(ctx, "sess-1", "income", "fees", "", 500)
	sl.LogError(ctx, "publish failed", errors.New("broker down"), ComponentAMQP, OpPublish, nil)

	if baseBuf.Len() != 0 {
		t.Fatalf("record events should go to the request logger, got %q", baseBuf.String())
	}
	out := reqBuf.String()
	if strings.Count(out, "request_id=req_42") != 2 {
		t.Fatalf("request id missing from record events: %q", out)
	}
}
