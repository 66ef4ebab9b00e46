// Package host owns the single wizard session a shell may have open at a time.
package host

import (
	"context"
	"log/slog"
	"sync"

	"civreg/internal/record/models"
	"civreg/internal/wizard"
	"civreg/internal/wizard/guard"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
)

// Hooks are relayed from the active session.
type Hooks struct {
	OnSave   func(models.Record)
	OnUpdate func(models.Record)
	OnClose  func(id.SessionID)
}

// Host keeps at most one open session. A completed or closed session frees
// the slot.
type Host struct {
	deps        wizard.Deps
	sessionOpts []wizard.Option
	hooks       Hooks
	logger      *slog.Logger

	mu     sync.Mutex
	active *wizard.Session
}

type Option func(*Host)

// WithSessionOptions applies opts to every session the host opens.
func WithSessionOptions(opts ...wizard.Option) Option {
	return func(h *Host) {
		h.sessionOpts = append(h.sessionOpts, opts...)
	}
}

func WithHooks(hooks Hooks) Option {
	return func(h *Host) {
		h.hooks = hooks
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

func New(deps wizard.Deps, opts ...Option) *Host {
	h := &Host{deps: deps, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open starts a session unless one is already open.
func (h *Host) Open(ctx context.Context, req wizard.OpenRequest) (*wizard.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != nil && h.active.Status() == wizard.StatusOpen {
		return nil, dErrors.New(dErrors.CodeConflict, "a wizard session is already open")
	}

	sessionID := id.NewSessionID()
	opts := append([]wizard.Option{}, h.sessionOpts...)
	opts = append(opts,
		wizard.WithSessionID(sessionID),
		wizard.WithLogger(h.logger),
		wizard.WithCallbacks(wizard.Callbacks{
			OnSave: func(r models.Record) {
				h.release(sessionID)
				if h.hooks.OnSave != nil {
					h.hooks.OnSave(r)
				}
			},
			OnUpdate: func(r models.Record) {
				h.release(sessionID)
				if h.hooks.OnUpdate != nil {
					h.hooks.OnUpdate(r)
				}
			},
			OnClose: func() {
				h.release(sessionID)
				if h.hooks.OnClose != nil {
					h.hooks.OnClose(sessionID)
				}
			},
		}),
	)

	sess, err := wizard.Open(ctx, req, h.deps, opts...)
	if err != nil {
		return nil, err
	}
	h.active = sess
	return sess, nil
}

// Active returns the open session, if any.
func (h *Host) Active() (*wizard.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil, false
	}
	return h.active, true
}

// RequireActive is Active that reports a missing session as not found.
func (h *Host) RequireActive() (*wizard.Session, error) {
	sess, ok := h.Active()
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no wizard session is open")
	}
	return sess, nil
}

// Close asks the active session to close with reason.
func (h *Host) Close(ctx context.Context, reason guard.Reason) (bool, error) {
	sess, err := h.RequireActive()
	if err != nil {
		return false, err
	}
	return sess.RequestClose(ctx, reason)
}

// Shutdown discards the active session. The confirm answer is carried in the
// context, so it only bypasses the prompt for a guard.ContextConfirmer.
func (h *Host) Shutdown(ctx context.Context) {
	sess, ok := h.Active()
	if !ok {
		return
	}
	if _, err := sess.RequestClose(guard.WithAnswer(ctx, true), guard.ReasonDismiss); err != nil {
		h.logger.WarnContext(ctx, "wizard session did not close on shutdown", "error", err)
	}
}

func (h *Host) release(sessionID id.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != nil && h.active.ID() == sessionID {
		h.active = nil
	}
}
