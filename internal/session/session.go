// Package session implements server-side sessions keyed by an opaque
// token held by the client in an HTTP-only cookie.
package session

import (
	"context"
	"time"

	"github.com/gestureview/backend/internal/models"
)

// Session binds a client token to an authenticated identity and role.
// DocumentType holds the extension of the most recently displayed file
// and is consumed by the gesture dispatcher; empty until a display.
type Session struct {
	Token        string      `json:"token"`
	Username     string      `json:"username"`
	Role         models.Role `json:"role"`
	DocumentType string      `json:"document_type,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// Expired reports whether the session's idle lifetime has passed
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store defines how sessions are stored and retrieved. Get returns
// (nil, nil) for unknown or expired tokens; expiry is indistinguishable
// from absence. Touch renews the idle lifetime and Delete is idempotent.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Touch(ctx context.Context, token string) error
	SetDocumentType(ctx context.Context, token, documentType string) error
	Delete(ctx context.Context, token string) error
}
