package models

import (
	"maps"
	"slices"
	"sort"
	"strings"

	pstrings "civreg/pkg/platform/strings"
)

// RecordErrorKey collects errors that do not belong to any single field.
const RecordErrorKey = "_record"

// FieldErrors maps a draft field name to its error messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Merge folds other into fe, de-duplicating messages per field.
func (fe FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		fe[field] = pstrings.DedupeAndTrim(append(fe[field], msgs...))
		if len(fe[field]) == 0 {
			delete(fe, field)
		}
	}
}

// Clear removes any errors recorded for field.
func (fe FieldErrors) Clear(field string) {
	delete(fe, field)
}

// Empty reports whether no field carries an error.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Has reports whether field carries at least one error.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Fields returns the erroneous field names in sorted order.
func (fe FieldErrors) Fields() []string {
	fields := slices.Collect(maps.Keys(fe))
	sort.Strings(fields)
	return fields
}

// Clone returns a deep copy.
func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ValidationError carries field-scoped errors, whether produced locally by a step
// validator or returned by the registry when it rejects a write.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Fields.Fields(), ", ")
}

// NewValidationError wraps a field error map.
func NewValidationError(fields FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

// FieldMap exposes the field errors to transports that do not import models.
func (e *ValidationError) FieldMap() map[string][]string {
	if e == nil {
		return nil
	}
	return e.Fields
}
