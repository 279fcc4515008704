package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gestureview/backend/internal/gesture"
	"github.com/gestureview/backend/internal/middleware"
	"go.uber.org/zap"
)

// GestureDispatcher executes a gesture against the host for the given
// document type.
type GestureDispatcher interface {
	Dispatch(ctx context.Context, documentType, gestureName string) error
}

// GestureHandler handles POST /gesture_action
type GestureHandler struct {
	BaseHandler
	dispatcher GestureDispatcher
}

// NewGestureHandler creates a new gesture handler
func NewGestureHandler(dispatcher GestureDispatcher, logger *zap.Logger) *GestureHandler {
	return &GestureHandler{
		BaseHandler: BaseHandler{Logger: logger},
		dispatcher:  dispatcher,
	}
}

// RegisterRoutes registers the gesture route. The session is loaded
// best-effort; a missing session surfaces as a missing-context error
// rather than a redirect, since callers are scripts, not browsers.
func (h *GestureHandler) RegisterRoutes(r chi.Router, loadSession func(http.Handler) http.Handler) {
	r.With(loadSession).Post("/gesture_action", h.Dispatch)
}

// gestureRequest is the /gesture_action payload
type gestureRequest struct {
	Gesture string `json:"gesture"`
}

// Dispatch handles POST /gesture_action. Responses are structured:
// {"status":"success","gesture":...} or {"status":"error","message":...}
// with 400 for missing context / unsupported gestures and 500 when the
// input simulation itself fails.
func (h *GestureHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Invalid request",
		})
		return
	}

	var documentType string
	if sess, ok := middleware.GetSession(r.Context()); ok {
		documentType = sess.DocumentType
	}

	if req.Gesture == "" || documentType == "" {
		h.RespondJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Invalid request",
		})
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), documentType, req.Gesture); err != nil {
		switch {
		case errors.Is(err, gesture.ErrMissingContext), errors.Is(err, gesture.ErrUnsupportedGesture):
			h.RespondJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "error",
				"message": "Gesture not supported for this file type",
			})
		default:
			h.Logger.Error("gesture action failed",
				zap.String("gesture", req.Gesture),
				zap.String("document_type", documentType),
				zap.Error(err),
			)
			h.RespondJSON(w, http.StatusInternalServerError, map[string]string{
				"status":  "error",
				"message": err.Error(),
			})
		}
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"gesture": req.Gesture,
	})
}
