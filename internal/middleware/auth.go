package middleware

import (
	"context"
	"net/http"

	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/models"
	"github.com/gestureview/backend/internal/session"
	"go.uber.org/zap"
)

const sessionKey contextKey = "session"

// RequireSession loads the caller's session and renews its idle
// lifetime. Without a live session the caller is redirected to the
// login page with a warning notice.
func RequireSession(store session.Store, notices *flash.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadSession(w, r, store, logger)
			if sess == nil {
				notices.Add(w, r, flash.Warning, "You need to log in first")
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is RequireSession plus an exact role match. A live session
// with the wrong role gets 403, not a login redirect.
func RequireRole(store session.Store, notices *flash.Store, logger *zap.Logger, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadSession(w, r, store, logger)
			if sess == nil {
				notices.Add(w, r, flash.Warning, "You need to log in first")
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if sess.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadSession attaches the session to the context when one exists but
// lets the request through either way. Used by the gesture endpoint,
// which reports missing context itself instead of redirecting.
func LoadSession(store session.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := loadSession(w, r, store, logger); sess != nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey, sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSession retrieves the session from context
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}

// loadSession resolves the request's session, renews its idle deadline
// and refreshes the cookie. Returns nil when absent or expired.
func loadSession(w http.ResponseWriter, r *http.Request, store session.Store, logger *zap.Logger) *session.Session {
	token := session.TokenFromRequest(r)
	if token == "" {
		return nil
	}

	sess, err := store.Get(r.Context(), token)
	if err != nil {
		logger.Error("failed to load session", zap.Error(err))
		return nil
	}
	if sess == nil {
		return nil
	}

	// Sliding idle renewal: any authenticated request extends the session
	if err := store.Touch(r.Context(), token); err != nil {
		logger.Warn("failed to touch session", zap.Error(err))
	} else if refreshed, err := store.Get(r.Context(), token); err == nil && refreshed != nil {
		sess = refreshed
		session.SetCookie(w, token, sess.ExpiresAt)
	}

	return sess
}
