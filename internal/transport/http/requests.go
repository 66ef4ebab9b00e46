package httptransport

import (
	"strings"

	"civreg/internal/record/models"
	"civreg/internal/wizard"
	"civreg/internal/wizard/draft"
	"civreg/internal/wizard/guard"
	"civreg/internal/wizard/submission"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
)

// OpenSessionRequest is the body of POST /wizard/sessions. Edit mode takes
// either the full record or the id of one the registry can return.
type OpenSessionRequest struct {
	Mode     string         `json:"mode"`
	RecordID string         `json:"record_id,omitempty"`
	Record   *models.Record `json:"record,omitempty"`

	mode     wizard.Mode
	recordID id.RecordID
}

// Validate implements httputil.Validatable.
func (r *OpenSessionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	mode, err := submission.ParseMode(strings.TrimSpace(r.Mode))
	if err != nil {
		return err
	}
	r.mode = mode
	if mode == wizard.ModeAdd {
		if r.Record != nil || r.RecordID != "" {
			return dErrors.New(dErrors.CodeBadRequest, "add mode starts from an empty record")
		}
		return nil
	}
	if r.Record == nil && r.RecordID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "edit mode requires record or record_id")
	}
	if r.Record == nil {
		parsed, err := id.ParseRecordID(strings.TrimSpace(r.RecordID))
		if err != nil {
			return err
		}
		r.recordID = parsed
	}
	return nil
}

// SetFieldsRequest is the body of PUT /wizard/session/fields.
type SetFieldsRequest struct {
	Values map[draft.Field]string `json:"values"`
}

func (r *SetFieldsRequest) Validate() error {
	if r == nil || len(r.Values) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "values are required")
	}
	return nil
}

// CloseRequest is the body of POST /wizard/session/close. Confirm answers the
// discard prompt; it can also be given as ?confirm=true.
type CloseRequest struct {
	Reason  string `json:"reason"`
	Confirm bool   `json:"confirm"`

	reason guard.Reason
}

func (r *CloseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		r.Reason = string(guard.ReasonCancel)
	}
	reason, err := guard.ParseReason(strings.TrimSpace(r.Reason))
	if err != nil {
		return err
	}
	r.reason = reason
	return nil
}

// SubmitResponse is the body of a successful POST /wizard/session/submit.
type SubmitResponse struct {
	Record models.Record `json:"record"`
}

// CloseResponse reports whether the session closed. Closed is false when
// unsaved changes need confirmation.
type CloseResponse struct {
	Closed       bool `json:"closed"`
	NeedsConfirm bool `json:"needs_confirm"`
}
