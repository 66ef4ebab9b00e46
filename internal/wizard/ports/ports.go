// Package ports declares the collaborators a wizard session talks to. They
// keep the wizard independent of HTTP, SQL, or any particular registry.
package ports

import (
	"context"

	"civreg/internal/record/models"
	id "civreg/pkg/domain"
	audit "civreg/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// DuplicateSearcher looks up existing records resembling a tuple.
type DuplicateSearcher interface {
	// SearchDuplicates returns exact and similar matches for q. Records whose ID
	// equals q.ExcludeID are never returned.
	SearchDuplicates(ctx context.Context, q models.DuplicateQuery) (models.DuplicateResult, error)
}

// RecordStore persists complete records.
// Field-level rejections are returned as *models.ValidationError.
type RecordStore interface {
	Create(ctx context.Context, record models.Record) (models.Record, error)
	Update(ctx context.Context, recordID id.RecordID, record models.Record) (models.Record, error)
}

// Confirmer asks the operator whether unsaved changes may be discarded.
type Confirmer interface {
	ConfirmDiscard(ctx context.Context) bool
}

// AuditPublisher defines the interface for emitting audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
