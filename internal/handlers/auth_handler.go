package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/models"
	"github.com/gestureview/backend/internal/repositories"
	"github.com/gestureview/backend/internal/services"
	"github.com/gestureview/backend/internal/session"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps authentication business logic.
type AuthService interface {
	// Method Login authenticates a user and establishes a session.
	//
	// Returns services.ErrInvalidCredentials for unknown usernames and
	// wrong passwords alike.
	Login(ctx context.Context, username, password string) (*session.Session, error)
	// Method Register creates a new user account with role=user.
	//
	// Returns repositories.ErrDuplicateUsername when the username is taken.
	Register(ctx context.Context, username, password string) (*models.User, error)
	// Method Logout invalidates a session; idempotent.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger, notices *flash.Store, templates *template.Template) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger, Notices: notices, Templates: templates},
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterPage)
	r.Post("/register", h.Register)
	r.Get("/logout", h.Logout)
}

// Home handles GET / and sends the caller to the login page
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, "login.html", nil)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.RedirectWithNotice(w, r, flash.Danger, "Invalid request", "/login")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	sess, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.Logger.Error("login failed", zap.Error(err))
		}
		h.RedirectWithNotice(w, r, flash.Danger, "Invalid username or password", "/login")
		return
	}

	session.SetCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, dashboardPath(sess.Role), http.StatusFound)
}

// RegisterPage handles GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, "register.html", nil)
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.RedirectWithNotice(w, r, flash.Danger, "Invalid request", "/register")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if _, err := h.authService.Register(r.Context(), username, password); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			h.RedirectWithNotice(w, r, flash.Danger, "Username already exists!", "/register")
			return
		}
		h.Logger.Error("registration failed", zap.Error(err))
		h.RedirectWithNotice(w, r, flash.Danger, "Failed to create account", "/register")
		return
	}

	h.RedirectWithNotice(w, r, flash.Success, "Account created successfully! You can now log in.", "/login")
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromRequest(r)
	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.Logger.Error("logout failed", zap.Error(err))
	}

	session.ClearCookie(w)
	h.RedirectWithNotice(w, r, flash.Info, "You have been logged out", "/login")
}
