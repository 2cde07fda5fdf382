package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += int64(n)
	return n, err
}

// requestID keeps a caller-supplied uuid and mints one otherwise
func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

func logLevel(path string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case strings.HasPrefix(path, "/health"):
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logging tags each request with a request id, makes a request-scoped
// logger available through logger.FromContext and logs the outcome,
// including the acting user when one was named
func Logging(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r)
			r.Header.Set(RequestIDHeader, id)
			w.Header().Set(RequestIDHeader, id)

			reqLog := logger.WithRequest(base, r.Method, r.URL.Path, id)
			if raw := r.Header.Get(ActingUserHeader); raw != "" {
				if actor, err := strconv.Atoi(raw); err == nil {
					reqLog = logger.WithActor(reqLog, domain.UserID(actor))
				} else {
					reqLog = reqLog.With(zap.String("acting_user", raw))
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(logger.NewContext(r.Context(), reqLog)))

			if ce := reqLog.Check(logLevel(r.URL.Path, rec.status), r.Method+" "+r.URL.Path); ce != nil {
				ce.Write(
					zap.String("remote_addr", r.RemoteAddr),
					zap.Int("status_code", rec.status),
					zap.Int64("response_size", rec.bytes),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}
