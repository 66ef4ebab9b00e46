package handler

import (
	"strings"

	"civreg/internal/record/models"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
)

// RecordRequest is the body of POST /records and PUT /records/{id}.
type RecordRequest struct {
	models.Record
}

// Validate implements httputil.Validatable. Field checks are the store's job;
// this only refuses bodies that cannot be a record at all.
func (r *RecordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Child.FirstName = strings.TrimSpace(r.Child.FirstName)
	r.Child.LastName = strings.TrimSpace(r.Child.LastName)
	r.Child.DateOfBirth = strings.TrimSpace(r.Child.DateOfBirth)
	return nil
}

// SearchRequest is the body of POST /records/duplicates.
type SearchRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	OccurrenceDate string `json:"occurrence_date"`
	ExcludeID      string `json:"exclude_id,omitempty"`

	excludeID id.RecordID
}

func (r *SearchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.OccurrenceDate = strings.TrimSpace(r.OccurrenceDate)
	if r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "last_name is required")
	}
	if r.ExcludeID != "" {
		parsed, err := id.ParseRecordID(r.ExcludeID)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "exclude_id must be a record id")
		}
		r.excludeID = parsed
	}
	return nil
}

func (r *SearchRequest) query() models.DuplicateQuery {
	return models.DuplicateQuery{
		Tuple: models.Tuple{
			FirstName:      r.FirstName,
			LastName:       r.LastName,
			OccurrenceDate: r.OccurrenceDate,
		},
		ExcludeID: r.excludeID,
	}
}

// ListResponse is the body of GET /records.
type ListResponse struct {
	Records []models.Record `json:"records"`
}
