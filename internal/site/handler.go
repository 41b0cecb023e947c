package site

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/view"
)

// Handler serves the public and signed-in user pages.
type Handler struct {
	logger         *slog.Logger
	templates      *view.Engine
	csrf           *shared.CSRFManager
	resolver       *auth.Resolver
	requireSession func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. requireSession guards /dashboard.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, resolver *auth.Resolver, requireSession func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, csrf: csrf, resolver: resolver, requireSession: requireSession}
}

// MountRoutes registers site routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.landing)
	r.Get("/integrations", h.integrations)
	r.Get("/connect/{appId}", h.connect)
	r.With(h.requireSession).Get("/dashboard", h.dashboard)
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/landing.html", "OCTABOX", nil, http.StatusOK)
}

func (h *Handler) integrations(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/integrations.html", "Integrations", Catalog(), http.StatusOK)
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	app, ok := FindApp(chi.URLParam(r, "appId"))
	if !ok {
		h.render(w, r, "pages/connect.html", "App Not Found", nil, http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/connect.html", "Connect "+app.Name, &app, http.StatusOK)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/dashboard.html", "Dashboard", sampleDashboard(), http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewer := ""
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil && h.resolver != nil {
		principal = h.resolver.Resolve(r.Context(), sess)
	}
	if principal != nil {
		viewer = principal.Email
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   h.csrf.EnsureToken(sess),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      viewer,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
	}
}
