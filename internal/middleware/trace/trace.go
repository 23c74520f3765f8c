package trace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	applog "banchi/internal/log"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger
	observe   func(method string, status int)
}

// NewMiddleware creates a new trace middleware. observe, when set, is
// called with every completed request.
func NewMiddleware(extractIP func(*http.Request) string, logger *applog.StructuredLogger, observe func(method string, status int)) *Middleware {
	if logger == nil {
		logger = applog.NewStructuredLogger(nil)
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		observe:   observe,
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := GenerateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		ctx := applog.IntoContext(r.Context(), m.logger.Logger().With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		m.logger.LogHTTPStart(ctx, r, requestID, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		durationMs := time.Since(start).Milliseconds()

		m.logger.LogHTTPEnd(ctx, r, requestID, rw.statusCode, durationMs, clientIP)
		if m.observe != nil {
			m.observe(r.Method, rw.statusCode)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
