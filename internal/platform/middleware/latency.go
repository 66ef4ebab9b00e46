// Package middleware holds router middleware that depends on application
// packages; the generic chain lives in pkg/platform/middleware.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"civreg/internal/platform/metrics"
	"civreg/pkg/platform/middleware/request"
)

// LatencyMiddleware observes request duration labelled by the matched chi
// route pattern, so ids in paths do not explode cardinality.
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := request.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(rec.Status()), time.Since(start))
		})
	}
}
