// Package bearer guards service-to-service routes with a shared token.
package bearer

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"civreg/pkg/platform/middleware/request"
)

// RequireToken admits requests whose Authorization header carries
// "Bearer <expected>". An empty expected token disables the check.
func RequireToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			// Constant-time comparison
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "bearer token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"bearer token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
