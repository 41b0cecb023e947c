package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/notifications"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/users"
	"github.com/octabox/octabox/internal/view"
)

const recentLimit = 10

// Handler serves the admin login entry point and the admin console.
type Handler struct {
	logger        *slog.Logger
	flow          *LoginFlow
	gate          rbac.Middleware
	templates     *view.Engine
	csrf          *shared.CSRFManager
	directory     *users.Service
	notifications *notifications.Service
	loginLimit    int
	validator     *validator.Validate
}

// HandlerParams groups Handler collaborators.
type HandlerParams struct {
	Logger        *slog.Logger
	Flow          *LoginFlow
	Gate          rbac.Middleware
	Templates     *view.Engine
	CSRF          *shared.CSRFManager
	Directory     *users.Service
	Notifications *notifications.Service
	// LoginLimit caps POST /admin-login per IP per minute. Zero disables it.
	LoginLimit int
}

// NewHandler constructs a Handler.
func NewHandler(p HandlerParams) *Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		flow:          p.Flow,
		gate:          p.Gate,
		templates:     p.Templates,
		csrf:          p.CSRF,
		directory:     p.Directory,
		notifications: p.Notifications,
		loginLimit:    p.LoginLimit,
		validator:     validator.New(),
	}
}

// MountRoutes registers /admin-login and the gated /admin subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/admin-login", h.showLogin)
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.LimitByIP(h.loginLimit, time.Minute))
		}
		r.Post("/admin-login", h.submitLogin)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.gate.RequireAdmin())
		r.Get("/", h.console)
		r.Post("/notifications", h.sendNotification)
		r.Post("/users/{id}/suspend", h.suspendUser)
	})
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Email string
	Error string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if _, decision := h.gate.Check(r.Context(), sess); decision.Allowed {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/admin_login.html", "Admin Login", loginPageData{}, http.StatusOK)
}

func (h *Handler) submitLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := loginForm{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	if err := h.validator.Struct(form); err != nil {
		h.render(w, r, "pages/admin_login.html", "Admin Login", loginPageData{Email: form.Email, Error: "Enter your admin email and password."}, http.StatusBadRequest)
		return
	}

	outcome := h.flow.Submit(r.Context(), sess, Credentials{
		Email:     form.Email,
		Password:  form.Password,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	h.logger.Info("admin login", slog.String("state", string(outcome.State)), slog.Any("trail", outcome.Trail))

	switch outcome.State {
	case StateGranted:
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Title: "Welcome Admin!", Message: outcome.Message})
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	case StateRevokedAndDenied:
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Title: "Access Denied", Message: outcome.Message})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		h.render(w, r, "pages/admin_login.html", "Admin Login", loginPageData{Email: form.Email, Error: outcome.Message}, http.StatusUnauthorized)
	}
}

// Analytics are the console's headline counters.
type Analytics struct {
	TotalUsers         int
	ActiveUsers        int
	TotalNotifications int64
}

type broadcastForm struct {
	Recipient string
	Category  string
	Title     string
	Body      string
}

type consolePageData struct {
	Analytics      Analytics
	Members        []users.Member
	Recent         []notifications.Notification
	Categories     []notifications.Category
	IdempotencyKey string
	Form           broadcastForm
}

func (h *Handler) console(w http.ResponseWriter, r *http.Request) {
	data, err := h.loadConsole(r.Context())
	if err != nil {
		h.logger.Error("load admin console", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data.Form = broadcastForm{Recipient: notifications.RecipientAll, Category: string(notifications.CategoryInfo)}
	h.render(w, r, "pages/admin.html", "Admin Dashboard", data, http.StatusOK)
}

func (h *Handler) loadConsole(ctx context.Context) (consolePageData, error) {
	data := consolePageData{
		Categories:     notifications.Categories(),
		IdempotencyKey: uuid.NewString(),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := h.directory.ListMembers(gctx)
		if err != nil {
			return err
		}
		data.Members = members
		return nil
	})
	g.Go(func() error {
		recent, err := h.notifications.ListRecent(gctx, recentLimit)
		if err != nil {
			return err
		}
		data.Recent = recent
		return nil
	})
	g.Go(func() error {
		total, err := h.notifications.Count(gctx)
		if err != nil {
			return err
		}
		data.Analytics.TotalNotifications = total
		return nil
	})
	if err := g.Wait(); err != nil {
		return consolePageData{}, err
	}
	data.Analytics.TotalUsers = len(data.Members)
	for _, m := range data.Members {
		if m.HasSignedIn() {
			data.Analytics.ActiveUsers++
		}
	}
	return data, nil
}

func (h *Handler) sendNotification(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	principal := auth.PrincipalFromContext(r.Context())
	req := notifications.SendRequest{
		Title:          r.PostFormValue("title"),
		Body:           r.PostFormValue("body"),
		Category:       notifications.Category(r.PostFormValue("category")),
		Recipient:      r.PostFormValue("recipient"),
		IdempotencyKey: r.PostFormValue("idempotency_key"),
	}
	sent, err := h.notifications.Send(r.Context(), principal.ID, req)
	switch {
	case err == nil:
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Title: "Success", Message: "Notification sent to " + strconv.Itoa(sent) + " user(s)"})
	case errors.Is(err, notifications.ErrValidation):
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Title: "Validation Error", Message: validationDetail(err)})
	case errors.Is(err, shared.ErrIdempotencyConflict):
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Title: "Already sent", Message: "This notification was already submitted."})
	default:
		h.logger.Error("send notification", slog.String("actor_id", principal.ID), slog.Any("error", err))
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Title: "Error", Message: err.Error()})
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) suspendUser(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Title: "Feature Coming Soon", Message: "User suspension feature will be available soon."})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var flash *shared.FlashMessage
	viewer := ""
	if sess != nil {
		flash = sess.PopFlash()
	}
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		viewer = p.Email
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
		h.logger.Error("render admin page", slog.String("template", name), slog.Any("error", err))
	}
}

// validationDetail strips the sentinel prefix so the flash names the
// rejected field.
func validationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), notifications.ErrValidation.Error()+": ")
}
