package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/logger"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 response. Mounted inside
// Logging, the panic is logged with the request's id.
func Recovery(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context(), base).Error("Recovered from panic",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, domain.ErrorTypeInternal, "An unexpected error occurred")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
