package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civreg/internal/host"
	"civreg/internal/platform/metrics"
	"civreg/internal/record/models"
	"civreg/internal/wizard"
	"civreg/internal/wizard/guard"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/platform/sentinel"
	"civreg/pkg/requestcontext"
)

// RecordLoader fetches a stored record to open it for editing.
type RecordLoader interface {
	Get(ctx context.Context, recordID id.RecordID) (models.Record, error)
}

// Handler wires the wizard endpoints to the host.
type Handler struct {
	host    *host.Host
	loader  RecordLoader
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler constructs the handler. loader may be nil, in which case edit
// sessions must be opened with the full record.
func NewHandler(h *host.Host, loader RecordLoader, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{host: h, loader: loader, logger: logger, metrics: m}
}

// Register mounts the wizard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/wizard/sessions", h.HandleOpen)
	r.Route("/wizard/session", func(r chi.Router) {
		r.Get("/", h.HandleView)
		r.Put("/fields", h.HandleSetFields)
		r.Post("/next", h.HandleNext)
		r.Post("/prev", h.HandlePrev)
		r.Post("/submit", h.HandleSubmit)
		r.Post("/clear-duplicates", h.HandleClearDuplicates)
		r.Post("/close", h.HandleClose)
	})
}

// HandleOpen handles POST /wizard/sessions.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[OpenSessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	open := wizard.OpenRequest{Mode: req.mode, Record: req.Record}
	if req.mode == wizard.ModeEdit && req.Record == nil {
		rec, err := h.load(ctx, req.recordID)
		if err != nil {
			h.writeError(ctx, w, "open", err)
			return
		}
		open.Record = &rec
	}

	sess, err := h.host.Open(ctx, open)
	if err != nil {
		h.writeError(ctx, w, "open", err)
		return
	}
	h.syncActive()
	h.logger.InfoContext(ctx, "wizard session opened",
		"request_id", requestID,
		"session_id", sess.ID(),
		"mode", sess.Mode(),
		"operator", requestcontext.Operator(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, sess.View())
}

// HandleView handles GET /wizard/session.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	sess, err := h.host.RequireActive()
	if err != nil {
		h.writeError(r.Context(), w, "view", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

// HandleSetFields handles PUT /wizard/session/fields.
func (h *Handler) HandleSetFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.host.RequireActive()
	if err != nil {
		h.writeError(ctx, w, "set_fields", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetFieldsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := sess.SetFields(ctx, req.Values); err != nil {
		h.writeError(ctx, w, "set_fields", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

// HandleNext handles POST /wizard/session/next.
func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "next", (*wizard.Session).GoNext)
}

// HandlePrev handles POST /wizard/session/prev.
func (h *Handler) HandlePrev(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "prev", (*wizard.Session).GoPrev)
}

// HandleClearDuplicates handles POST /wizard/session/clear-duplicates.
func (h *Handler) HandleClearDuplicates(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "clear_duplicates", (*wizard.Session).ClearConflictingFields)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, op string, fn func(*wizard.Session, context.Context) error) {
	ctx := r.Context()
	sess, err := h.host.RequireActive()
	if err != nil {
		h.writeError(ctx, w, op, err)
		return
	}
	if err := fn(sess, ctx); err != nil {
		h.writeError(ctx, w, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

// HandleSubmit handles POST /wizard/session/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.host.RequireActive()
	if err != nil {
		h.writeError(ctx, w, "submit", err)
		return
	}
	rec, err := sess.Submit(ctx)
	if err != nil {
		h.writeError(ctx, w, "submit", err)
		return
	}
	h.syncActive()
	h.logger.InfoContext(ctx, "wizard session submitted",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sess.ID(),
		"registry_number", rec.RegistryNumber,
	)
	status := http.StatusCreated
	if sess.Mode() == wizard.ModeEdit {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, SubmitResponse{Record: rec})
}

// HandleClose handles POST /wizard/session/close.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req *CloseRequest
	if r.ContentLength == 0 {
		req = &CloseRequest{}
		if err := req.Validate(); err != nil {
			h.writeError(ctx, w, "close", err)
			return
		}
	} else {
		var ok bool
		req, ok = httputil.DecodeAndPrepare[CloseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
	}
	if q := r.URL.Query().Get("confirm"); q != "" {
		confirm, err := strconv.ParseBool(q)
		if err != nil {
			h.writeError(ctx, w, "close", dErrors.New(dErrors.CodeBadRequest, "confirm must be true or false"))
			return
		}
		req.Confirm = req.Confirm || confirm
	}

	closed, err := h.host.Close(guard.WithAnswer(ctx, req.Confirm), req.reason)
	if err != nil {
		h.writeError(ctx, w, "close", err)
		return
	}
	h.syncActive()
	httputil.WriteJSON(w, http.StatusOK, CloseResponse{Closed: closed, NeedsConfirm: !closed})
}

func (h *Handler) load(ctx context.Context, recordID id.RecordID) (models.Record, error) {
	if h.loader == nil {
		return models.Record{}, dErrors.New(dErrors.CodeBadRequest, "edit by record_id is not available; send the record")
	}
	rec, err := h.loader.Get(ctx, recordID)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return models.Record{}, dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
	default:
		return models.Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "registry unavailable")
	}
}

func (h *Handler) syncActive() {
	if _, ok := h.host.Active(); ok {
		h.metrics.SetActiveSessions(1)
		return
	}
	h.metrics.SetActiveSessions(0)
}
