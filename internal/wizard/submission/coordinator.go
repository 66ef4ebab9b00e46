// Package submission gates and performs the final write of a wizard draft to
// the registry.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"civreg/internal/record/models"
	"civreg/internal/wizard/draft"
	"civreg/internal/wizard/duplicates"
	"civreg/internal/wizard/metrics"
	"civreg/internal/wizard/ports"
	"civreg/internal/wizard/steps"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	audit "civreg/pkg/platform/audit"
	"civreg/pkg/requestcontext"
)

// Mode tells whether a session creates a new record or amends an existing one.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// ParseMode accepts "add" or "edit".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAdd, ModeEdit:
		return m, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "mode must be add or edit")
}

// Request is one submission attempt. Draft must not be shared with a caller
// that keeps mutating it.
type Request struct {
	SessionID id.SessionID
	Mode      Mode
	RecordID  id.RecordID
	Draft     *draft.Draft
}

// Coordinator sends complete drafts to the record store.
type Coordinator struct {
	store   ports.RecordStore
	auditor ports.AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Coordinator)

func WithAuditor(a ports.AuditPublisher) Option {
	return func(c *Coordinator) {
		c.auditor = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = t
	}
}

func New(store ports.RecordStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("civreg/wizard/submission"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Precheck runs the local gates that precede any collaborator call. It returns
// the whole-record field errors alongside a CodeValidation error, or a
// CodeDuplicate error when an exact duplicate is known.
func Precheck(class duplicates.Classification, d *draft.Draft, asOf time.Time) (models.FieldErrors, error) {
	if class.Blocking() {
		return nil, dErrors.New(dErrors.CodeDuplicate, "an identical record already exists")
	}
	if errs := steps.Validate(steps.Terminal, d, asOf); !errs.Empty() {
		return errs, dErrors.Wrap(models.NewValidationError(errs), dErrors.CodeValidation, "record is incomplete")
	}
	return nil, nil
}

// Submit dehydrates the draft and writes it. Field rejections from the store
// come back as CodeRejected wrapping a *models.ValidationError whose keys are
// draft field names. Every other failure is CodeUnavailable and may be retried.
func (c *Coordinator) Submit(ctx context.Context, req Request) (models.Record, error) {
	ctx, span := c.tracer.Start(ctx, "wizard.submit",
		trace.WithAttributes(
			attribute.String("mode", string(req.Mode)),
			attribute.String("session_id", req.SessionID.String()),
		),
	)
	defer span.End()

	record, err := draft.Dehydrate(req.Draft)
	if err != nil {
		span.SetStatus(codes.Error, "dehydrate failed")
		return models.Record{}, dErrors.Wrap(err, dErrors.CodeValidation, "record is incomplete")
	}

	start := time.Now()
	var saved models.Record
	switch req.Mode {
	case ModeEdit:
		if req.RecordID.IsNil() {
			return models.Record{}, dErrors.New(dErrors.CodeInvariantViolation, "edit mode requires a record id")
		}
		saved, err = c.store.Update(ctx, req.RecordID, record)
	default:
		saved, err = c.store.Create(ctx, record)
	}
	c.metrics.ObserveSubmitLatency(time.Since(start))

	if err != nil {
		span.RecordError(err)
		return models.Record{}, c.translate(ctx, span, req, err)
	}

	span.SetAttributes(attribute.String("registry_number", saved.RegistryNumber))
	c.metrics.IncSubmission(string(req.Mode), "saved")
	c.emit(ctx, req, audit.Event{
		RecordID:       saved.ID,
		RegistryNumber: saved.RegistryNumber,
		Action:         string(successEvent(req.Mode)),
		Decision:       "saved",
	})
	c.logger.InfoContext(ctx, "record saved",
		"mode", req.Mode,
		"session_id", req.SessionID,
		"record_id", saved.ID,
		"registry_number", saved.RegistryNumber,
	)
	return saved, nil
}

func (c *Coordinator) translate(ctx context.Context, span trace.Span, req Request, err error) error {
	var rejected *models.ValidationError
	if errors.As(err, &rejected) {
		span.SetStatus(codes.Error, "rejected")
		c.metrics.IncSubmission(string(req.Mode), "rejected")
		fields := NormalizeFieldErrors(rejected.Fields)
		c.emit(ctx, req, audit.Event{
			RecordID: req.RecordID,
			Action:   string(audit.EventSubmissionRejected),
			Decision: "rejected",
			Reason:   rejected.Error(),
		})
		c.logger.InfoContext(ctx, "registry rejected record",
			"session_id", req.SessionID,
			"fields", fields.Fields(),
		)
		return dErrors.Wrap(models.NewValidationError(fields), dErrors.CodeRejected, "registry rejected the record")
	}

	span.SetStatus(codes.Error, "unavailable")
	c.metrics.IncSubmission(string(req.Mode), "failed")
	c.logger.WarnContext(ctx, "record submission failed",
		"session_id", req.SessionID,
		"mode", req.Mode,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not save the record, try again")
}

// NormalizeFieldErrors rekeys collaborator errors onto draft field names.
// Keys that name no field are collected under models.RecordErrorKey, prefixed
// with the original key.
func NormalizeFieldErrors(in models.FieldErrors) models.FieldErrors {
	out := models.FieldErrors{}
	for key, msgs := range in {
		if f, ok := draft.FieldFromPath(key); ok {
			for _, m := range msgs {
				out.Add(string(f), m)
			}
			continue
		}
		for _, m := range msgs {
			if key == models.RecordErrorKey || key == "" {
				out.Add(models.RecordErrorKey, m)
			} else {
				out.Add(models.RecordErrorKey, fmt.Sprintf("%s: %s", key, m))
			}
		}
	}
	return out
}

func successEvent(m Mode) audit.AuditEvent {
	if m == ModeEdit {
		return audit.EventRecordUpdated
	}
	return audit.EventRecordCreated
}

func (c *Coordinator) emit(ctx context.Context, req Request, event audit.Event) {
	if c.auditor == nil {
		return
	}
	event.SessionID = req.SessionID
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Operator = requestcontext.Operator(ctx)
	if err := c.auditor.Emit(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
