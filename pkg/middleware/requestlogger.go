package middleware

import (
	"log/slog"
	"net/http"

	"github.com/sefaaycicek/fakestore/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with the
// correlation, owner and trace identifiers already present on the request.
// Mount it after RequestLogging, Tracing and Owner.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
