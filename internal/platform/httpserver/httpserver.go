// Package httpserver builds the http.Server both binaries listen with.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"civreg/internal/platform/config"
)

const readHeaderTimeout = 5 * time.Second

// Option tunes a server built by New.
type Option func(*http.Server)

// WithTimeouts applies the read, write and idle limits from configuration.
// Zero values keep the defaults.
func WithTimeouts(cfg config.Server) Option {
	return func(s *http.Server) {
		if cfg.ReadTimeout > 0 {
			s.ReadTimeout = cfg.ReadTimeout
		}
		if cfg.WriteTimeout > 0 {
			s.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			s.IdleTimeout = cfg.IdleTimeout
		}
	}
}

// WithLogger routes the server's own errors (TLS handshakes, panics outside
// handlers, accept failures) to logger at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *http.Server) {
		if logger != nil {
			s.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
		}
	}
}

// New builds a server for handler on addr. Header reads are always bounded
// so a slow client cannot hold a connection open before routing.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
