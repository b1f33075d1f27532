package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Next     string
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

var loginFieldMessages = map[string]string{
	"Email":    "Enter a valid email address.",
	"Password": "Password is required.",
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginForm{Next: r.URL.Query().Get("next")}, nil, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Next:     r.PostFormValue("next"),
	}
	errors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range fieldErrs {
				errors[fieldErr.Field()] = loginFieldMessages[fieldErr.Field()]
			}
		}
	}

	if len(errors) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			h.logger.Info("login rejected", slog.String("email", form.Email))
			errors["general"] = shared.UserSafeMessage(err)
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			h.sessionManager.Renew(sess)
			sess.SetUser(strconv.FormatInt(user.ID, 10))
			if _, err := h.csrfManager.Rotate(r.Context(), sess); err != nil {
				h.logger.Warn("rotate csrf token", slog.Any("error", err))
			}
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + displayName(user) + "."})
			if err := h.service.RecordLogin(r.Context(), user.ID, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("record login", slog.Any("error", err))
			}
			http.Redirect(w, r, safeNext(form.Next), http.StatusSeeOther)
			return
		}
	}

	form.Password = ""
	h.renderLogin(w, r, form, errors, http.StatusBadRequest)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, form loginForm, errors map[string]string, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        loginPageData{Form: form, Errors: errors},
	}
	if err := h.templates.RenderStatus(w, status, "pages/auth/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if userID, ok := shared.CurrentUserID(r.Context()); ok {
			if err := h.service.RecordLogout(r.Context(), userID); err != nil {
				h.logger.Warn("record logout", slog.Any("error", err))
			}
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func displayName(u *User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/auth/") {
		return "/"
	}
	return next
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}
