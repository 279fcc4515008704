package handlers

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/middleware"
	"go.uber.org/zap"
)

// DashboardHandler serves the role-specific dashboards
type DashboardHandler struct {
	BaseHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(logger *zap.Logger, notices *flash.Store, templates *template.Template) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: BaseHandler{Logger: logger, Notices: notices, Templates: templates},
	}
}

// RegisterRoutes registers the dashboard routes. Role guards are applied
// by the caller since they need the session store.
func (h *DashboardHandler) RegisterRoutes(r chi.Router, adminGuard, userGuard func(http.Handler) http.Handler) {
	r.With(adminGuard).Get("/admin_dashboard", h.AdminDashboard)
	r.With(userGuard).Get("/user_dashboard", h.UserDashboard)
}

// AdminDashboard handles GET /admin_dashboard
func (h *DashboardHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	h.Render(w, r, "admin_dashboard.html", map[string]any{"Username": sess.Username})
}

// UserDashboard handles GET /user_dashboard
func (h *DashboardHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	h.Render(w, r, "user_dashboard.html", map[string]any{"Username": sess.Username})
}
