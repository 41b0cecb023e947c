package notifications

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/platform/httpx"
	"github.com/octabox/octabox/internal/shared"
)

// Handler exposes the broadcast JSON API. Routes must be mounted behind the
// admin gate.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.send)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req SendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Error", "malformed JSON body")
		return
	}
	sent, err := h.service.Send(r.Context(), principal.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrIdempotencyConflict):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		case errors.Is(err, ErrBulkWrite):
			h.logger.Error("broadcast failed", slog.String("actor_id", principal.ID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Error", err.Error())
		default:
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"sent": sent})
}
