package wizard

import (
	"log/slog"
	"time"

	"civreg/internal/record/models"
	"civreg/internal/wizard/duplicates"
	"civreg/internal/wizard/metrics"
	"civreg/internal/wizard/ports"
	id "civreg/pkg/domain"
)

// Deps are the collaborators of a session. Searcher and Store are required.
type Deps struct {
	Searcher  ports.DuplicateSearcher
	Store     ports.RecordStore
	Confirmer ports.Confirmer
	Auditor   ports.AuditPublisher
}

// Callbacks are fired at most once per session, never with the session lock held.
type Callbacks struct {
	OnSave   func(models.Record)
	OnUpdate func(models.Record)
	OnClose  func()
}

type config struct {
	sessionID id.SessionID
	logger    *slog.Logger
	metrics   *metrics.Metrics
	callbacks Callbacks
	sentinel  []duplicates.Option
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

func WithCallbacks(cb Callbacks) Option {
	return func(c *config) {
		c.callbacks = cb
	}
}

// WithSessionID fixes the session ID instead of generating one.
func WithSessionID(sessionID id.SessionID) Option {
	return func(c *config) {
		c.sessionID = sessionID
	}
}

// WithDebounce sets the quiet interval before a duplicate check.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.sentinel = append(c.sentinel, duplicates.WithInterval(d))
	}
}

// WithDuplicateTimeout bounds each duplicate search call.
func WithDuplicateTimeout(d time.Duration) Option {
	return func(c *config) {
		c.sentinel = append(c.sentinel, duplicates.WithTimeout(d))
	}
}

// WithAfterFunc replaces the debounce timer factory.
func WithAfterFunc(f duplicates.AfterFunc) Option {
	return func(c *config) {
		c.sentinel = append(c.sentinel, duplicates.WithAfterFunc(f))
	}
}
