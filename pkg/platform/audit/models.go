package audit

import (
	"context"
	"time"

	id "civreg/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events that change the civil registry: records
	// created or amended. These need long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused or abandoned operations worth reviewing.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine session activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from wizard logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category       EventCategory
	Timestamp      time.Time
	SessionID      id.SessionID
	RecordID       id.RecordID
	RegistryNumber string
	Action         string
	Decision       string
	Reason         string
	// Operator is the clerk driving the session, when known.
	Operator  string
	RequestID string
}

type AuditEvent string

const (
	EventSessionOpened      AuditEvent = "wizard_session_opened"
	EventSessionClosed      AuditEvent = "wizard_session_closed"
	EventChangesDiscarded   AuditEvent = "wizard_changes_discarded"
	EventDuplicateFlagged   AuditEvent = "duplicate_flagged"
	EventSubmissionRejected AuditEvent = "submission_rejected"
	EventRecordCreated      AuditEvent = "record_created"
	EventRecordUpdated      AuditEvent = "record_updated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRecordCreated: CategoryCompliance,
	EventRecordUpdated: CategoryCompliance,

	EventChangesDiscarded:   CategorySecurity,
	EventSubmissionRejected: CategorySecurity,
	EventDuplicateFlagged:   CategorySecurity,

	EventSessionOpened: CategoryOperations,
	EventSessionClosed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Sink accepts audit events for durable delivery.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store persists audit events and reads them back.
type Store interface {
	Sink
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Emitter is implemented by anything that accepts audit events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
