package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	sessionName    = "grams_session"
	sessionUserKey = "user_id"
)

// SessionConfig configures browser session cookies.
type SessionConfig struct {
	Secret []byte
	MaxAge time.Duration
	Secure bool
}

// Sessions keeps the signed-in user id in a signed cookie.
type Sessions struct {
	store sessions.Store
}

// NewSessions creates a cookie-backed session manager.
func NewSessions(cfg SessionConfig) *Sessions {
	cookieStore := sessions.NewCookieStore(cfg.Secret)

	cookieStore.MaxAge(int(cfg.MaxAge.Seconds()))
	cookieStore.Options.Path = "/"
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = cfg.Secure
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	return &Sessions{store: cookieStore}
}

// SignIn records userID in the session cookie.
func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	// A cookie signed with a rotated key decodes with an error but still yields a fresh session.
	session, _ := s.store.Get(r, sessionName)
	session.Values[sessionUserKey] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the session cookie.
func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

// UserID returns the signed-in user id, if any.
func (s *Sessions) UserID(r *http.Request) (int64, bool) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := session.Values[sessionUserKey].(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}
