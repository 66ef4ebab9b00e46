// Package auth identifies the clerk behind a host API request.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"civreg/pkg/platform/middleware/request"
	"civreg/pkg/requestcontext"
)

// HeaderOperator names the clerk driving the wizard.
const HeaderOperator = "X-Operator"

// RequireOperator rejects requests without an X-Operator header. A bearer
// token, when present, is kept as the credential forwarded to the registry.
func RequireOperator(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			operator := strings.TrimSpace(r.Header.Get(HeaderOperator))
			if operator == "" {
				logger.WarnContext(ctx, "unauthorized access - missing operator",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"X-Operator header required"}`))
				return
			}
			ctx = requestcontext.WithOperator(ctx, operator)
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
				ctx = requestcontext.WithCredential(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
