package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// IntoContext stores a request-scoped logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the request-scoped logger, or fallback when ctx
// carries none.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return fallback
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger. A nil logger falls
// back to slog.Default.
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = Default(ComponentApp)
	}
	return &StructuredLogger{
		logger: logger,
	}
}

// Logger returns the underlying logger.
func (sl *StructuredLogger) Logger() *Logger {
	return sl.logger
}

// forContext prefers the request-scoped logger so record events carry the
// request id.
func (sl *StructuredLogger) forContext(ctx context.Context) *slog.Logger {
	return FromContext(ctx, sl.logger).Logger
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogRecordAdmitted logs a record that passed validation and was stored.
func (sl *StructuredLogger) LogRecordAdmitted(ctx context.Context, sessionID, kind, label, date string, amountCents int64) {
	fields := NewFields().
		WithRecord(kind, label, date, amountCents).
		WithSessionID(sessionID).
		WithOperation(OpAppend).
		WithComponent(ComponentLedger)

	sl.forContext(ctx).InfoContext(ctx, "Ledger record admitted", fields.ToSlice()...)
}

// LogRecordRejected logs a submission the validator turned down.
func (sl *StructuredLogger) LogRecordRejected(ctx context.Context, sessionID, kind string, err error) {
	fields := NewFields().
		WithSessionID(sessionID).
		WithError(err).
		WithOperation(OpValidate).
		WithComponent(ComponentLedger)
	fields[FieldKind] = kind
	fields[FieldErrorType] = ErrorTypeValidation

	sl.forContext(ctx).InfoContext(ctx, "Ledger record rejected", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.forContext(ctx).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
