// Package handler serves a record store over HTTP. cmd/registry-mock mounts it
// as a stand-in for the civil registry.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civreg/internal/record/models"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/platform/middleware/bearer"
	"civreg/pkg/platform/sentinel"
	"civreg/pkg/requestcontext"
)

// Store is the registry persistence the handler exposes.
type Store interface {
	Create(ctx context.Context, r models.Record) (models.Record, error)
	Update(ctx context.Context, recordID id.RecordID, r models.Record) (models.Record, error)
	Get(ctx context.Context, recordID id.RecordID) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	SearchDuplicates(ctx context.Context, q models.DuplicateQuery) (models.DuplicateResult, error)
}

// Handler wires registry endpoints to a Store.
type Handler struct {
	store  Store
	token  string
	logger *slog.Logger
}

// New constructs a handler. A non-empty token makes every request present it
// as a bearer credential.
func New(store Store, token string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{store: store, token: token, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Use(bearer.RequireToken(h.token, h.logger))
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/duplicates", h.HandleSearch)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
	})
}

// HandleCreate handles POST /records.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RecordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	created, err := h.store.Create(ctx, req.Record)
	if err != nil {
		h.writeStoreError(ctx, w, "create", err)
		return
	}
	h.logger.InfoContext(ctx, "birth record created",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", created.ID,
		"registry_number", created.RegistryNumber,
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /records/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RecordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.store.Update(ctx, recordID, req.Record)
	if err != nil {
		h.writeStoreError(ctx, w, "update", err)
		return
	}
	h.logger.InfoContext(ctx, "birth record updated",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", updated.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleGet handles GET /records/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recordID, ok := parseID(w, r)
	if !ok {
		return
	}
	rec, err := h.store.Get(r.Context(), recordID)
	if err != nil {
		h.writeStoreError(r.Context(), w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleList handles GET /records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(r.Context(), w, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Records: records})
}

// HandleSearch handles POST /records/duplicates.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.store.SearchDuplicates(ctx, req.query())
	if err != nil {
		h.writeStoreError(ctx, w, "search", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) writeStoreError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteError(w, dErrors.Wrap(verr, dErrors.CodeValidation, "record rejected"))
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
	default:
		h.logger.ErrorContext(ctx, "registry store failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "store failure"))
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return id.RecordID{}, false
	}
	return recordID, true
}
