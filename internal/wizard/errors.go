package wizard

import (
	"errors"

	"civreg/internal/record/models"
	dErrors "civreg/pkg/domain-errors"
)

// Kind is the host-facing classification of an error returned by a session.
type Kind string

const (
	KindNone Kind = ""
	// KindValidation: local validation failed; the field errors are on the session.
	KindValidation Kind = "validation"
	// KindDuplicate: an exact duplicate blocks submission.
	KindDuplicate Kind = "duplicate"
	// KindRejected: the registry refused the record field by field.
	KindRejected Kind = "rejected"
	// KindUnavailable: the registry could not be reached; retry later.
	KindUnavailable Kind = "unavailable"
	// KindConflict: another operation is outstanding.
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound: no session is open, or the record to edit does not exist.
	KindNotFound Kind = "not_found"
	KindInternal Kind = "internal"
)

var kindsByCode = map[dErrors.Code]Kind{
	dErrors.CodeValidation:         KindValidation,
	dErrors.CodeDuplicate:          KindDuplicate,
	dErrors.CodeRejected:           KindRejected,
	dErrors.CodeUnavailable:        KindUnavailable,
	dErrors.CodeTimeout:            KindUnavailable,
	dErrors.CodeConflict:           KindConflict,
	dErrors.CodeInvalidState:       KindInvalidState,
	dErrors.CodeInvalidInput:       KindInvalidInput,
	dErrors.CodeBadRequest:         KindInvalidInput,
	dErrors.CodeNotFound:           KindNotFound,
	dErrors.CodeInvariantViolation: KindInternal,
}

// KindOf maps err onto the error taxonomy. Uncoded errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if k, ok := kindsByCode[dErrors.CodeOf(err)]; ok {
		return k
	}
	return KindInternal
}

// Retryable reports whether repeating the same operation may succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// FieldErrorsOf returns the field errors carried by err, if any.
func FieldErrorsOf(err error) models.FieldErrors {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields.Clone()
	}
	return nil
}
