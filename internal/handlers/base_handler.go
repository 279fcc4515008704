// Package handlers implements the HTTP surface: HTML pages for auth,
// dashboards and file viewing, plus the JSON gesture endpoint.
package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/models"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger    *zap.Logger
	Notices   *flash.Store
	Templates *template.Template
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// Render executes a page template, passing along any queued notices
func (h *BaseHandler) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Flashes"] = h.Notices.Pop(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.ExecuteTemplate(w, name, data); err != nil {
		h.Logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
	}
}

// RedirectWithNotice queues a notice and redirects
func (h *BaseHandler) RedirectWithNotice(w http.ResponseWriter, r *http.Request, category, text, location string) {
	h.Notices.Add(w, r, category, text)
	http.Redirect(w, r, location, http.StatusFound)
}

// dashboardPath returns the dashboard route for a role
func dashboardPath(role models.Role) string {
	if role == models.RoleAdmin {
		return "/admin_dashboard"
	}
	return "/user_dashboard"
}
