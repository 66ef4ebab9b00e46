// Package httptransport is the host HTTP API over the single active wizard
// session. Handlers stay thin: every decision lives in the wizard core.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civreg/internal/platform/metrics"
	"civreg/internal/platform/middleware"
	"civreg/pkg/platform/middleware/auth"
	"civreg/pkg/platform/middleware/request"
	"civreg/pkg/platform/middleware/requesttime"
)

// RouterConfig carries the router-level collaborators.
type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Clock    func() time.Time
	Timeout  time.Duration
}

// NewRouter wires the wizard endpoints, /metrics and /healthz.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Timeout))
		r.Use(request.ContentTypeJSON)
		r.Use(requesttime.WithClock(cfg.Clock))
		r.Use(auth.RequireOperator(cfg.Logger))
		h.Register(r)
	})
	return r
}
