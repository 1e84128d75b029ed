package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-browse/pkg/logger"
)

// SessionHeader lets clients that track their browse session out of band
// tag requests that are not addressed by session path.
const SessionHeader = "X-Session-ID"

// RequestLogger returns middleware that builds a request-scoped logger
// enriched with correlation_id, session_id, trace_id, and span_id, and stores
// it in context. Downstream handlers retrieve it with logger.FromContext(ctx).
//
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if sessionID := r.Header.Get(SessionHeader); sessionID != "" {
				ctx = logger.WithSessionID(ctx, sessionID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
