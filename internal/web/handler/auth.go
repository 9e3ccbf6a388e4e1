package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/services/session"
	"github.com/quijoterun/tracker/internal/web/middleware"
	"github.com/quijoterun/tracker/internal/web/templates/pages"
)

// AuthHandler handles the sign-in and registration forms
type AuthHandler struct {
	configured bool
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. configured is false when the
// backend settings are missing, which puts a warning on the forms.
func NewAuthHandler(configured bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		configured: configured,
		logger:     logger,
	}
}

// LoginPage renders the sign-in page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

// RegisterPage renders the registration page
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, http.StatusOK, "", "")
}

// Login handles sign-in form submission. Failures re-render the form with
// the backend's message; htmx only swaps 2xx responses, so they stay 200.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "Invalid form data")
		return
	}

	identifier := r.FormValue("identifier")
	err := store.SignIn(r.Context(), identifier, r.FormValue("password"))
	if err != nil {
		h.logger.Info("sign in failed", slog.String("error", err.Error()))
		h.renderLogin(w, r, http.StatusOK, identifier, backend.Message(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, "", "Invalid form data")
		return
	}

	identifier := r.FormValue("identifier")
	err := store.SignUp(r.Context(), identifier, r.FormValue("password"))
	switch {
	case errors.Is(err, session.ErrConfirmationPending):
		middleware.SetFlash(w, middleware.FlashInfo, err.Error())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Info("sign up failed", slog.String("error", err.Error()))
		h.renderRegister(w, r, http.StatusOK, identifier, backend.Message(err))
		return
	}

	middleware.SetFlash(w, middleware.FlashSuccess, "Welcome to QuijoteRun!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the session. The local session is cleared even when the
// backend call fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if store := middleware.GetStore(r.Context()); store != nil {
		if err := store.SignOut(r.Context()); err != nil {
			h.logger.Warn("sign out failed", slog.String("error", err.Error()))
		}
	}
	middleware.SetFlash(w, middleware.FlashInfo, "You have been signed out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, identifier, errorMsg string) {
	data := pages.AuthData{
		PageData:   pageData(r, "Sign in"),
		Identifier: identifier,
		Error:      errorMsg,
		Configured: h.configured,
	}
	render(w, r, h.logger, status, pages.Login(data))
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, identifier, errorMsg string) {
	data := pages.AuthData{
		PageData:   pageData(r, "Register"),
		Identifier: identifier,
		Error:      errorMsg,
		Configured: h.configured,
	}
	render(w, r, h.logger, status, pages.Register(data))
}
