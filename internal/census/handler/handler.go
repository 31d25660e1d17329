// Package handler is the thin HTTP layer for household records. It delegates
// to the record service without embedding business logic so transport
// concerns remain isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"census/internal/census"
	dErrors "census/pkg/domain-errors"
	"census/pkg/platform/httputil"
	"census/pkg/requestcontext"
)

// Service defines the record operations the handler depends on.
type Service interface {
	Create(ctx context.Context, rec census.HouseholdRecord) (census.HouseholdRecord, error)
	Get(ctx context.Context, id string) (census.HouseholdRecord, error)
	List(ctx context.Context) ([]census.HouseholdRecord, error)
	Update(ctx context.Context, id string, params census.UpdateParams) (census.HouseholdRecord, error)
	Delete(ctx context.Context, id string) error
}

// Handler handles household record endpoints.
type Handler struct {
	logger  *slog.Logger
	records Service
}

// New creates a new record Handler.
func New(records Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, records: records}
}

// Register mounts the record routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/census", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rec census.HouseholdRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.records.Create(ctx, rec)
	if err != nil {
		h.logError(ctx, "create household record failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.records.List(ctx)
	if err != nil {
		h.logError(ctx, "list household records failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, records)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.records.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logError(ctx, "get household record failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, rec)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params census.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.records.Update(ctx, chi.URLParam(r, "id"), params)
	if err != nil {
		h.logError(ctx, "update household record failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.records.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.logError(ctx, "delete household record failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	// Validation and lookup misses are normal traffic; only infra failures
	// are errors.
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeBadRequest || code == dErrors.CodeNotFound {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
