package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, collaborator clients and caches
// return these (optionally wrapped) so the wizard can translate them into domain errors.
//
// These describe the state of a resource, not the validity of user input:
// - ErrNotFound: record does not exist in the registry
// - ErrConflict: a store-wide uniqueness constraint rejected the write
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: collaborator temporarily unavailable (retry later)
// - ErrSuperseded: a newer operation made this result irrelevant
//
// For field-level input problems, use models.ValidationError.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrSuperseded   = errors.New("superseded")
)
