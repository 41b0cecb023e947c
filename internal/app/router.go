package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/octabox/octabox/internal/admin"
	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/notifications"
	"github.com/octabox/octabox/internal/observability"
	"github.com/octabox/octabox/internal/platform/httpx"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/site"
	"github.com/octabox/octabox/internal/users"
	"github.com/octabox/octabox/jobs"
	"github.com/octabox/octabox/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	SessionManager       *shared.SessionManager
	CSRFManager          *shared.CSRFManager
	Metrics              *observability.Metrics
	SiteHandler          *site.Handler
	AuthHandler          *auth.Handler
	AdminHandler         *admin.Handler
	NotificationsHandler *notifications.Handler
	UsersHandler         *users.Handler
	Gate                 rbac.Middleware
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with OCTABOX defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.SiteHandler != nil {
		params.SiteHandler.MountRoutes(r)
	}
	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.AdminHandler != nil {
		params.AdminHandler.MountRoutes(r)
	}
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(params.Gate.RequireAdminAPI())
		if params.NotificationsHandler != nil {
			r.Route("/notifications", params.NotificationsHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler sets a one hour browser cache on static assets.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
