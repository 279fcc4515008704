// Package flash implements one-shot notice messages carried across
// redirects in a signed cookie.
package flash

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

const cookieName = "notices"

// Notice categories, used as CSS classes by the templates
const (
	Success = "success"
	Info    = "info"
	Warning = "warning"
	Danger  = "danger"
)

// Message is a single notice
type Message struct {
	Category string
	Text     string
}

func init() {
	gob.Register(Message{})
}

// Store issues and collects notices. The cookie is signed with the
// application secret so clients cannot forge notices.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a notice store signed with the given secret
func NewStore(secret []byte) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// Add queues a notice for the next rendered page
func (s *Store) Add(w http.ResponseWriter, r *http.Request, category, text string) {
	sess, _ := s.cookies.Get(r, cookieName)
	sess.AddFlash(Message{Category: category, Text: text})
	sess.Save(r, w)
}

// Pop returns all queued notices and clears them
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	sess, _ := s.cookies.Get(r, cookieName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	sess.Save(r, w) // persist the cleared state

	messages := make([]Message, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(Message); ok {
			messages = append(messages, m)
		}
	}
	return messages
}
