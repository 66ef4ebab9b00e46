package models

import (
	"strings"

	id "civreg/pkg/domain"
	pstrings "civreg/pkg/platform/strings"
)

// Tuple is the identifying tuple of a principal subject.
type Tuple struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	OccurrenceDate string `json:"occurrence_date"`
}

// Complete reports whether every part of the tuple is filled in.
func (t Tuple) Complete() bool {
	return strings.TrimSpace(t.FirstName) != "" &&
		strings.TrimSpace(t.LastName) != "" &&
		strings.TrimSpace(t.OccurrenceDate) != ""
}

// Matches compares two tuples after name normalization.
func (t Tuple) Matches(other Tuple) bool {
	return pstrings.SameName(t.FirstName, other.FirstName) &&
		pstrings.SameName(t.LastName, other.LastName) &&
		strings.TrimSpace(t.OccurrenceDate) == strings.TrimSpace(other.OccurrenceDate)
}

// Key is a stable, normalized representation used for caching.
func (t Tuple) Key() string {
	return pstrings.NormalizeName(t.FirstName) + "|" +
		pstrings.NormalizeName(t.LastName) + "|" +
		strings.TrimSpace(t.OccurrenceDate)
}

// DuplicateQuery is sent to the duplicate-search collaborator.
// ExcludeID is set in edit mode so a record never matches itself.
type DuplicateQuery struct {
	Tuple
	ExcludeID id.RecordID `json:"exclude_id"`
}

// Candidate summarizes a previously persisted record that resembles the draft.
type Candidate struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	OccurrenceDate string `json:"occurrence_date"`
	RegistryNumber string `json:"registry_number"`
	Sex            Sex    `json:"sex"`
	Exact          bool   `json:"exact"`
}

// Tuple returns the candidate's identifying tuple.
func (c Candidate) Tuple() Tuple {
	return Tuple{FirstName: c.FirstName, LastName: c.LastName, OccurrenceDate: c.OccurrenceDate}
}

// DuplicateResult is the duplicate-search collaborator's answer.
type DuplicateResult struct {
	IsDuplicate    bool        `json:"is_duplicate"`
	SimilarRecords []Candidate `json:"similar_records"`
}

// CandidateFrom summarizes a stored record, flagging it exact when its tuple
// matches the query tuple.
func CandidateFrom(r Record, query Tuple) Candidate {
	return Candidate{
		FirstName:      r.Child.FirstName,
		LastName:       r.Child.LastName,
		OccurrenceDate: r.Child.DateOfBirth,
		RegistryNumber: r.RegistryNumber,
		Sex:            r.Child.Sex,
		Exact:          r.Tuple().Matches(query),
	}
}
