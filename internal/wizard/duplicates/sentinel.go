// Package duplicates watches the identifying tuple of a draft and, after a
// quiet interval, asks the registry for records that resemble it.
package duplicates

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"civreg/internal/record/models"
	"civreg/internal/wizard/metrics"
	"civreg/internal/wizard/ports"
	id "civreg/pkg/domain"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// State is a snapshot of the sentinel.
type State struct {
	Classification Classification
	Candidates     []models.Candidate
	// Pending is true while a check is scheduled or in flight.
	Pending bool
}

// Sentinel debounces tuple changes into duplicate searches. Every change takes
// a new sequence token; a response may only update the state when its token is
// still the latest one. Safe for concurrent use.
type Sentinel struct {
	searcher  ports.DuplicateSearcher
	interval  time.Duration
	timeout   time.Duration
	afterFunc AfterFunc
	logger    *slog.Logger
	metrics   *metrics.Metrics
	excludeID id.RecordID
	onChange  func(State)

	mu      sync.Mutex
	tuple   models.Tuple
	latest  uint64
	timer   Timer
	cancel  context.CancelFunc
	pending bool
	closed  bool
	class   Classification
	matches []models.Candidate
}

type Option func(*Sentinel)

func WithInterval(d time.Duration) Option {
	return func(s *Sentinel) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds a single search call.
func WithTimeout(d time.Duration) Option {
	return func(s *Sentinel) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Sentinel) {
		s.afterFunc = f
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sentinel) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sentinel) {
		s.metrics = m
	}
}

// WithExcludeID keeps the record being edited out of its own results.
func WithExcludeID(recordID id.RecordID) Option {
	return func(s *Sentinel) {
		s.excludeID = recordID
	}
}

// WithOnChange registers f to run after every applied classification.
// It is called without the sentinel lock held.
func WithOnChange(f func(State)) Option {
	return func(s *Sentinel) {
		s.onChange = f
	}
}

func New(searcher ports.DuplicateSearcher, opts ...Option) *Sentinel {
	s := &Sentinel{
		searcher:  searcher,
		interval:  DefaultInterval,
		timeout:   DefaultTimeout,
		afterFunc: realAfterFunc,
		logger:    slog.New(slog.DiscardHandler),
		class:     None,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed records the tuple of a hydrated record without scheduling a check.
func (s *Sentinel) Seed(t models.Tuple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tuple = t
}

// Observe records a new tuple, invalidates any scheduled or in-flight check
// and restarts the quiet interval.
func (s *Sentinel) Observe(t models.Tuple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.tuple = t
	token := s.invalidateLocked()
	s.pending = true
	s.timer = s.afterFunc(s.interval, func() { s.fire(token) })
}

// Reset clears the tuple and classification and drops pending checks.
func (s *Sentinel) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.invalidateLocked()
	s.tuple = models.Tuple{}
	s.class = None
	s.matches = nil
	state := s.stateLocked()
	s.mu.Unlock()
	s.notify(state)
}

// Close stops the sentinel. Pending and in-flight checks are abandoned and no
// later response can change its state.
func (s *Sentinel) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.invalidateLocked()
	s.closed = true
}

// State returns a snapshot.
func (s *Sentinel) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Classification returns the current classification.
func (s *Sentinel) Classification() Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.class
}

func (s *Sentinel) stateLocked() State {
	return State{
		Classification: s.class,
		Candidates:     slices.Clone(s.matches),
		Pending:        s.pending,
	}
}

// invalidateLocked takes a new token, stops the timer and cancels any query.
func (s *Sentinel) invalidateLocked() uint64 {
	s.latest++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pending = false
	return s.latest
}

func (s *Sentinel) fire(token uint64) {
	s.mu.Lock()
	if s.closed || token != s.latest {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	tuple := s.tuple
	if !tuple.Complete() {
		s.pending = false
		s.class = None
		s.matches = nil
		state := s.stateLocked()
		s.mu.Unlock()
		s.metrics.IncDuplicateQuery("skipped")
		s.notify(state)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel
	query := models.DuplicateQuery{Tuple: tuple, ExcludeID: s.excludeID}
	s.mu.Unlock()

	s.metrics.IncDuplicateQuery("sent")
	start := time.Now()
	res, err := s.searcher.SearchDuplicates(ctx, query)
	s.metrics.ObserveDuplicateLatency(time.Since(start))
	cancel()

	s.mu.Lock()
	if s.closed || token != s.latest {
		s.mu.Unlock()
		s.metrics.IncDuplicateQuery("stale")
		s.logger.Debug("stale duplicate response dropped", "token", token)
		return
	}
	s.cancel = nil
	s.pending = false
	if err != nil {
		s.mu.Unlock()
		s.metrics.IncDuplicateQuery("failed")
		s.logger.Warn("duplicate search failed",
			"token", token,
			"error", err,
		)
		return
	}
	s.class = Classify(tuple, res)
	s.matches = slices.Clone(res.SimilarRecords)
	state := s.stateLocked()
	s.mu.Unlock()

	s.metrics.IncDuplicateQuery("applied")
	s.metrics.IncClassification(string(state.Classification))
	s.notify(state)
}

func (s *Sentinel) notify(state State) {
	if s.onChange != nil {
		s.onChange(state)
	}
}
