package users

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/octabox/octabox/internal/platform/httpx"
)

// Handler serves the JSON principal directory to admins.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers directory routes. Callers guard the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listMembers)
}

type memberResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastSignInAt   *time.Time `json:"last_sign_in_at"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	Admin          bool       `json:"admin"`
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.logger.Error("list members failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			ID:             m.ID,
			Email:          m.Email,
			Name:           m.Name,
			CreatedAt:      m.CreatedAt,
			LastSignInAt:   m.LastSignInAt,
			SuspendedUntil: m.SuspendedUntil,
			Admin:          m.IsAdmin,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}
