package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/view"
)

// WelcomeMailer queues the welcome email sent after sign-up.
type WelcomeMailer interface {
	EnqueueWelcome(ctx context.Context, email, name string) error
}

// Handler wires HTTP endpoints for user sign-in, sign-up and sign-out.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resolver  *Resolver
	templates *view.Engine
	csrf      *shared.CSRFManager
	mailer    WelcomeMailer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. mailer may be nil.
func NewHandler(logger *slog.Logger, service *Service, resolver *Resolver, templates *view.Engine, csrf *shared.CSRFManager, mailer WelcomeMailer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		resolver:  resolver,
		templates: templates,
		csrf:      csrf,
		mailer:    mailer,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showAuth)
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignUp)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type signUpForm struct {
	Name     string `validate:"max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type authFormValues struct {
	Name  string
	Email string
}

type authPageData struct {
	Mode   string
	Form   authFormValues
	Errors map[string]string
}

func (h *Handler) showAuth(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if h.resolver.Resolve(r.Context(), sess) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	mode := "login"
	if r.URL.Query().Get("mode") == "signup" {
		mode = "signup"
	}
	h.render(w, r, authPageData{Mode: mode}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	page := authPageData{Mode: "login", Form: authFormValues{Email: form.Email}, Errors: h.validate(form)}
	if len(page.Errors) > 0 {
		h.render(w, r, page, http.StatusBadRequest)
		return
	}

	principal, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Info("sign in rejected", slog.Any("error", err))
		page.Errors["general"] = err.Error()
		h.render(w, r, page, http.StatusBadRequest)
		return
	}
	if err := h.service.StartSession(r.Context(), sess, principal, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Error("start session", slog.Any("error", err))
		page.Errors["general"] = "Please try again or create a new account."
		h.render(w, r, page, http.StatusInternalServerError)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Title: "Welcome back!", Message: "Successfully signed in to OCTABOX."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := signUpForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	page := authPageData{Mode: "signup", Form: authFormValues{Name: form.Name, Email: form.Email}, Errors: h.validate(form)}
	if len(page.Errors) > 0 {
		h.render(w, r, page, http.StatusBadRequest)
		return
	}

	principal, err := h.service.SignUp(r.Context(), SignUpInput{Email: form.Email, Password: form.Password, Name: form.Name})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrEmailTaken) {
			page.Errors["general"] = err.Error()
		} else {
			h.logger.Error("sign up", slog.Any("error", err))
			page.Errors["general"] = "Please try again or create a new account."
			status = http.StatusInternalServerError
		}
		h.render(w, r, page, status)
		return
	}
	if h.mailer != nil {
		if err := h.mailer.EnqueueWelcome(r.Context(), principal.Email, principal.Name); err != nil {
			h.logger.Warn("enqueue welcome email", slog.Any("error", err))
		}
	}
	if err := h.service.StartSession(r.Context(), sess, principal, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Error("start session after sign up", slog.Any("error", err))
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Title: "Account created!", Message: "Welcome to OCTABOX. You're now signed in."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.SignOut(r.Context(), sess); err != nil {
		h.logger.Warn("sign out", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				errs[fieldErr.Field()] = fieldMessage(fieldErr)
			}
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Error()
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data authPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	title := "Sign in"
	if data.Mode == "signup" {
		title = "Sign up"
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   h.csrf.EnsureToken(sess),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/auth.html", viewData); err != nil {
		h.logger.Error("render auth", slog.Any("error", err))
	}
}
