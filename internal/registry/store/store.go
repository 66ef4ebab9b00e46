// Package store persists birth records and answers duplicate searches for the
// registry side of the system.
package store

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"civreg/internal/record/models"
	id "civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
	pstrings "civreg/pkg/platform/strings"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = sentinel.ErrNotFound

// RegistryPrefix prefixes every birth registry number.
const RegistryPrefix = "BTC"

// FormatRegistryNumber renders the seq-th registry number, e.g. BTC-000001.
func FormatRegistryNumber(seq int64) string {
	return fmt.Sprintf("%s-%06d", RegistryPrefix, seq)
}

// Similar reports whether a stored tuple resembles the query: same last name,
// and either the same date or the same first name.
func Similar(stored, query models.Tuple) bool {
	if !pstrings.SameName(stored.LastName, query.LastName) {
		return false
	}
	return strings.TrimSpace(stored.OccurrenceDate) == strings.TrimSpace(query.OccurrenceDate) ||
		pstrings.SameName(stored.FirstName, query.FirstName)
}

// search applies the duplicate rules to records. Candidates are ordered by
// registry number.
func search(records []models.Record, q models.DuplicateQuery) models.DuplicateResult {
	res := models.DuplicateResult{SimilarRecords: []models.Candidate{}}
	for _, r := range records {
		if !q.ExcludeID.IsNil() && r.ID == q.ExcludeID {
			continue
		}
		if !Similar(r.Tuple(), q.Tuple) {
			continue
		}
		c := models.CandidateFrom(r, q.Tuple)
		if c.Exact {
			res.IsDuplicate = true
		}
		res.SimilarRecords = append(res.SimilarRecords, c)
	}
	slices.SortFunc(res.SimilarRecords, func(a, b models.Candidate) int {
		return cmp.Compare(a.RegistryNumber, b.RegistryNumber)
	})
	return res
}

// Tuple paths used in field rejections.
const (
	pathFirstName   = "child.first_name"
	pathLastName    = "child.last_name"
	pathDateOfBirth = "child.date_of_birth"
)

// duplicateRejection reports an existing record with the same tuple as a field
// error on every tuple field.
func duplicateRejection(existing models.Record) *models.ValidationError {
	msg := "a birth record for this child already exists (" + existing.RegistryNumber + ")"
	return models.NewValidationError(models.FieldErrors{
		pathFirstName:   {msg},
		pathLastName:    {msg},
		pathDateOfBirth: {msg},
	})
}

// validate checks the fields the registry cannot store without.
func validate(r models.Record) error {
	errs := models.FieldErrors{}
	if strings.TrimSpace(r.Child.FirstName) == "" {
		errs.Add(pathFirstName, "is required")
	}
	if strings.TrimSpace(r.Child.LastName) == "" {
		errs.Add(pathLastName, "is required")
	}
	if strings.TrimSpace(r.Child.DateOfBirth) == "" {
		errs.Add(pathDateOfBirth, "is required")
	}
	if !r.Child.Sex.IsValid() {
		errs.Add("child.sex", "must be one of: male, female")
	}
	if !errs.Empty() {
		return models.NewValidationError(errs)
	}
	return nil
}

func findExact(records []models.Record, t models.Tuple, exclude id.RecordID) (models.Record, bool) {
	for _, r := range records {
		if r.ID != exclude && r.Tuple().Matches(t) {
			return r, true
		}
	}
	return models.Record{}, false
}
