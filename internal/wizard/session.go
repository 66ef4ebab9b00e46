// Package wizard drives one civil-record entry session: a draft filled in step
// by step, validated on every forward move, watched for duplicates, and
// finally submitted to the registry.
package wizard

import (
	"context"
	"log/slog"
	"sync"

	"civreg/internal/record/models"
	"civreg/internal/wizard/draft"
	"civreg/internal/wizard/duplicates"
	"civreg/internal/wizard/guard"
	"civreg/internal/wizard/metrics"
	"civreg/internal/wizard/ports"
	"civreg/internal/wizard/steps"
	"civreg/internal/wizard/submission"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	audit "civreg/pkg/platform/audit"
	"civreg/pkg/requestcontext"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusClosed    Status = "closed"
)

// Mode re-exports the submission modes.
type Mode = submission.Mode

const (
	ModeAdd  = submission.ModeAdd
	ModeEdit = submission.ModeEdit
)

// OpenRequest describes a new session. Edit mode requires a persisted Record.
type OpenRequest struct {
	Mode   Mode
	Record *models.Record
}

// Session is a single wizard run. It is safe for concurrent use; collaborator
// calls never happen while the session lock is held.
type Session struct {
	id          id.SessionID
	mode        Mode
	sentinel    *duplicates.Sentinel
	coordinator *submission.Coordinator
	guard       *guard.Guard
	auditor     ports.AuditPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	callbacks   Callbacks

	saveOnce  sync.Once
	closeOnce sync.Once

	mu         sync.Mutex
	recordID   id.RecordID
	record     models.Record
	draft      *draft.Draft
	step       steps.Step
	completed  map[steps.Step]bool
	errs       models.FieldErrors
	dirty      bool
	submitting bool
	status     Status
}

// Open starts a session. In edit mode the record is hydrated into the draft
// without scheduling a duplicate check.
func Open(ctx context.Context, req OpenRequest, deps Deps, opts ...Option) (*Session, error) {
	if deps.Searcher == nil || deps.Store == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "duplicate searcher and record store are required")
	}
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sessionID.IsNil() {
		cfg.sessionID = id.NewSessionID()
	}

	s := &Session{
		id:        cfg.sessionID,
		mode:      req.Mode,
		guard:     guard.New(deps.Confirmer),
		auditor:   deps.Auditor,
		metrics:   cfg.metrics,
		logger:    cfg.logger.With("session_id", cfg.sessionID.String()),
		callbacks: cfg.callbacks,
		step:      steps.First,
		completed: make(map[steps.Step]bool, steps.Count),
		errs:      models.FieldErrors{},
		status:    StatusOpen,
	}

	sentinelOpts := append([]duplicates.Option{
		duplicates.WithLogger(s.logger),
		duplicates.WithMetrics(cfg.metrics),
	}, cfg.sentinel...)

	switch req.Mode {
	case ModeAdd:
		if req.Record != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "add mode starts from an empty record")
		}
		s.draft = draft.New()
	case ModeEdit:
		if req.Record == nil || !req.Record.IsPersisted() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "edit mode requires a persisted record")
		}
		s.record = *req.Record
		s.recordID = req.Record.ID
		s.draft = draft.Hydrate(*req.Record)
		sentinelOpts = append(sentinelOpts, duplicates.WithExcludeID(req.Record.ID))
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "mode must be add or edit")
	}

	s.sentinel = duplicates.New(deps.Searcher, sentinelOpts...)
	s.sentinel.Seed(s.draft.Tuple())
	s.coordinator = submission.New(deps.Store,
		submission.WithAuditor(deps.Auditor),
		submission.WithMetrics(cfg.metrics),
		submission.WithLogger(s.logger),
	)

	s.emit(ctx, audit.Event{Action: string(audit.EventSessionOpened), Decision: string(req.Mode)})
	s.logger.InfoContext(ctx, "wizard session opened", "mode", req.Mode)
	return s, nil
}

func (s *Session) ID() id.SessionID { return s.id }

func (s *Session) Mode() Mode { return s.mode }

// SetField writes one draft value. Changing a tuple field restarts the
// duplicate check.
func (s *Session) SetField(ctx context.Context, f draft.Field, value string) error {
	return s.SetFields(ctx, map[draft.Field]string{f: value})
}

// SetFields writes several values at once. Unknown fields reject the whole batch.
func (s *Session) SetFields(_ context.Context, values map[draft.Field]string) error {
	for f := range values {
		if !draft.IsKnown(f) {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown field: "+string(f))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}

	tupleChanged := false
	for f, v := range values {
		changed, err := s.draft.Set(f, v)
		if err != nil {
			return err
		}
		s.errs.Clear(string(f))
		if !changed {
			continue
		}
		s.dirty = true
		if draft.IsTupleField(f) {
			tupleChanged = true
		}
	}
	if tupleChanged {
		s.sentinel.Observe(s.draft.Tuple())
	}
	return nil
}

// GoNext validates the current step. On failure the step's errors replace its
// previous ones and the step does not change. On the terminal step it does nothing.
func (s *Session) GoNext(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	next, ok := s.step.Next()
	if !ok {
		return nil
	}

	errs := steps.Validate(s.step, s.draft, requestcontext.Now(ctx))
	s.clearStepErrorsLocked(s.step)
	if !errs.Empty() {
		s.errs.Merge(errs)
		s.metrics.IncStepTransition("next", "blocked")
		return dErrors.Wrap(models.NewValidationError(errs), dErrors.CodeValidation, s.step.Title()+" step is incomplete")
	}
	s.completed[s.step] = true
	s.step = next
	s.metrics.IncStepTransition("next", "moved")
	return nil
}

// GoPrev moves back one step. It never validates and leaves errors and
// completion flags alone.
func (s *Session) GoPrev(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	if prev, ok := s.step.Prev(); ok {
		s.step = prev
		s.metrics.IncStepTransition("prev", "moved")
	}
	return nil
}

// ClearConflictingFields empties the identifying tuple and resets the
// duplicate classification.
func (s *Session) ClearConflictingFields(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	for _, f := range draft.TupleFields {
		changed, err := s.draft.Set(f, "")
		if err != nil {
			return err
		}
		if changed {
			s.dirty = true
		}
		s.errs.Clear(string(f))
	}
	s.sentinel.Reset()
	return nil
}

// Submit gates and sends the whole draft. It is only valid on the terminal
// step. Local gates run before any collaborator call. On success the draft becomes the registry's canonical
// record and OnSave or OnUpdate fires once.
func (s *Session) Submit(ctx context.Context) (models.Record, error) {
	s.mu.Lock()
	if err := s.requireOpenLocked(); err != nil {
		s.mu.Unlock()
		return models.Record{}, err
	}
	if s.submitting {
		s.mu.Unlock()
		return models.Record{}, dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	}
	if !s.step.IsTerminal() {
		s.mu.Unlock()
		return models.Record{}, dErrors.New(dErrors.CodeInvalidState, "submit is only allowed on the "+steps.Terminal.Title()+" step")
	}
	class := s.sentinel.Classification()
	fieldErrs, err := submission.Precheck(class, s.draft, requestcontext.Now(ctx))
	if err != nil {
		s.errs.Merge(fieldErrs)
		s.mu.Unlock()
		if class.Blocking() {
			s.emit(ctx, audit.Event{Action: string(audit.EventDuplicateFlagged), Decision: "blocked"})
		}
		s.metrics.IncSubmission(string(s.mode), "blocked")
		return models.Record{}, err
	}
	s.submitting = true
	req := submission.Request{
		SessionID: s.id,
		Mode:      s.mode,
		RecordID:  s.recordID,
		Draft:     s.draft.Clone(),
	}
	s.mu.Unlock()

	saved, err := s.coordinator.Submit(ctx, req)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		if fields := FieldErrorsOf(err); fields != nil {
			s.errs.Merge(fields)
		}
		s.mu.Unlock()
		return models.Record{}, err
	}
	s.record = saved
	s.recordID = saved.ID
	s.draft = draft.Hydrate(saved)
	s.sentinel.Seed(s.draft.Tuple())
	s.dirty = false
	s.errs = models.FieldErrors{}
	for _, st := range steps.All() {
		s.completed[st] = true
	}
	s.status = StatusCompleted
	s.mu.Unlock()

	s.saveOnce.Do(func() {
		cb := s.callbacks.OnSave
		if s.mode == ModeEdit {
			cb = s.callbacks.OnUpdate
		}
		if cb != nil {
			cb(saved)
		}
	})
	return saved, nil
}

// RequestClose asks to close the session. A clean session closes at once; a
// dirty one closes only when the confirmer agrees. It reports whether the
// session is closed afterwards.
func (s *Session) RequestClose(ctx context.Context, reason guard.Reason) (bool, error) {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return true, nil
	}
	if s.submitting {
		s.mu.Unlock()
		return false, dErrors.New(dErrors.CodeConflict, "cannot close while a submission is in progress")
	}
	dirty := s.dirty
	s.mu.Unlock()

	outcome := s.guard.Check(ctx, reason, dirty)
	if !outcome.Allowed {
		s.logger.InfoContext(ctx, "close declined", "reason", reason)
		return false, nil
	}

	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return true, nil
	}
	if s.submitting {
		s.mu.Unlock()
		return false, dErrors.New(dErrors.CodeConflict, "cannot close while a submission is in progress")
	}
	s.status = StatusClosed
	s.sentinel.Close()
	s.mu.Unlock()

	action := audit.EventSessionClosed
	if dirty {
		action = audit.EventChangesDiscarded
	}
	s.emit(ctx, audit.Event{Action: string(action), Reason: string(reason)})
	s.metrics.IncSessionClosed(string(reason))
	s.logger.InfoContext(ctx, "wizard session closed", "reason", reason, "discarded", dirty)

	s.closeOnce.Do(func() {
		if s.callbacks.OnClose != nil {
			s.callbacks.OnClose()
		}
	})
	return true, nil
}

// Close is RequestClose with the cancel reason.
func (s *Session) Close(ctx context.Context) (bool, error) {
	return s.RequestClose(ctx, guard.ReasonCancel)
}

func (s *Session) requireOpenLocked() error {
	switch s.status {
	case StatusClosed:
		return dErrors.New(dErrors.CodeInvalidState, "session is closed")
	case StatusCompleted:
		return dErrors.New(dErrors.CodeInvalidState, "session is already completed")
	}
	return nil
}

func (s *Session) clearStepErrorsLocked(st steps.Step) {
	fields := st.Fields()
	if st.IsTerminal() {
		fields = draft.All()
	}
	for _, f := range fields {
		s.errs.Clear(string(f))
	}
}

func (s *Session) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.SessionID = s.id
	event.RecordID = s.recordID
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Operator = requestcontext.Operator(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
