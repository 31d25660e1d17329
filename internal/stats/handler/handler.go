// Package handler exposes the statistics endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"census/internal/stats"
	"census/pkg/platform/httputil"
	"census/pkg/requestcontext"
)

// Service defines the statistics operation the handler depends on.
type Service interface {
	Snapshot(ctx context.Context) (stats.Snapshot, error)
}

// Handler handles the statistics endpoint.
type Handler struct {
	logger *slog.Logger
	stats  Service
}

// New creates a new statistics Handler.
func New(stats Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, stats: stats}
}

// Register mounts the statistics route. chi matches the static "stats"
// segment before the record routes' /{id} pattern.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/census/stats", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.stats.Snapshot(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "statistics computation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	// The dashboard consumes the snapshot bare, without the success envelope.
	httputil.WriteJSON(w, http.StatusOK, snap)
}
