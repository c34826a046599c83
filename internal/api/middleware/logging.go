package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingMiddleware emits one structured line per request with the trace id
// and, once authenticated, the caller. Server errors log at error level.
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			// Authenticate runs deeper in the chain; it fills this slot in place.
			r = r.WithContext(withCallerSlot(r.Context()))

			next.ServeHTTP(rw, r)

			level := zapcore.InfoLevel
			switch {
			case rw.status >= http.StatusInternalServerError:
				level = zapcore.ErrorLevel
			case rw.status >= http.StatusBadRequest:
				level = zapcore.WarnLevel
			}
			logger.Check(level, "http_request").Write(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.String("trace_id", TraceIDFromContext(r.Context())),
				zap.String("user_id", callerFromSlot(r.Context())),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

type callerSlot struct {
	userID string
}

const callerSlotKey contextKey = "caller_slot"

func withCallerSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, callerSlotKey, &callerSlot{})
}

func recordCaller(ctx context.Context, userID string) {
	if slot, ok := ctx.Value(callerSlotKey).(*callerSlot); ok {
		slot.userID = userID
	}
}

func callerFromSlot(ctx context.Context) string {
	if slot, ok := ctx.Value(callerSlotKey).(*callerSlot); ok {
		return slot.userID
	}
	return ""
}
