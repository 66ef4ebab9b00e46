package httptransport

import (
	"context"
	"errors"
	"net/http"

	"civreg/internal/wizard"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// ErrorResponse is the wizard API error body. Error is the wizard.Kind.
type ErrorResponse struct {
	Error            string              `json:"error"`
	ErrorDescription string              `json:"error_description,omitempty"`
	Fields           map[string][]string `json:"fields,omitempty"`
	Retryable        bool                `json:"retryable"`
}

var statusByKind = map[wizard.Kind]int{
	wizard.KindValidation:   http.StatusUnprocessableEntity,
	wizard.KindRejected:     http.StatusUnprocessableEntity,
	wizard.KindDuplicate:    http.StatusConflict,
	wizard.KindConflict:     http.StatusConflict,
	wizard.KindInvalidState: http.StatusConflict,
	wizard.KindInvalidInput: http.StatusBadRequest,
	wizard.KindNotFound:     http.StatusNotFound,
	wizard.KindUnavailable:  http.StatusServiceUnavailable,
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	kind := wizard.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{Error: string(kind), Retryable: wizard.Retryable(err)}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "wizard operation failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"error", err,
		)
	} else {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
		if fields := wizard.FieldErrorsOf(err); len(fields) > 0 {
			resp.Fields = fields
		}
	}
	httputil.WriteJSON(w, status, resp)
}
