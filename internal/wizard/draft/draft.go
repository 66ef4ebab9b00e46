// Package draft holds the in-progress, flat form of a civil record and the pure
// mappings between it and the registry's canonical nested shape.
package draft

import (
	"maps"
	"strings"

	"civreg/internal/record/models"
	dErrors "civreg/pkg/domain-errors"
)

// Draft is a flat bag of string values keyed by Field. The zero value is not
// usable; construct with New or Hydrate. A Draft is not safe for concurrent use.
type Draft struct {
	values map[Field]string
}

// New returns an empty draft for add mode.
func New() *Draft {
	return &Draft{values: make(map[Field]string, len(catalog))}
}

// Get returns the value of f, or "" when unset.
func (d *Draft) Get(f Field) string {
	return d.values[f]
}

// Set stores value under f and reports whether the stored value changed.
// Unknown fields are rejected.
func (d *Draft) Set(f Field, value string) (bool, error) {
	if !IsKnown(f) {
		return false, dErrors.New(dErrors.CodeInvalidInput, "unknown field: "+string(f))
	}
	if d.values[f] == value {
		return false, nil
	}
	if value == "" {
		delete(d.values, f)
	} else {
		d.values[f] = value
	}
	return true, nil
}

// Values returns a copy of every non-empty value.
func (d *Draft) Values() map[Field]string {
	return maps.Clone(d.values)
}

// Clone returns an independent copy.
func (d *Draft) Clone() *Draft {
	return &Draft{values: maps.Clone(d.values)}
}

// Tuple returns the identifying tuple currently held by the draft.
func (d *Draft) Tuple() models.Tuple {
	return models.Tuple{
		FirstName:      strings.TrimSpace(d.Get(ChildFirstName)),
		LastName:       strings.TrimSpace(d.Get(ChildLastName)),
		OccurrenceDate: strings.TrimSpace(d.Get(ChildDateOfBirth)),
	}
}

// FieldFromPath resolves a registry error key to a draft field. Both the nested
// path form ("mother.age") and the flat form ("mother_age") are accepted.
func FieldFromPath(path string) (Field, bool) {
	f := Field(strings.ReplaceAll(strings.TrimSpace(path), ".", "_"))
	if !IsKnown(f) {
		return "", false
	}
	return f, true
}
