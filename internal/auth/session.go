package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName = "league_session"
	userIDKey   = "uid"
)

// Sessions keeps the signed-in user id in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string, secure bool, maxAgeSeconds int) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(maxAgeSeconds)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return &Sessions{store: store}
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := s.store.Get(r, SessionName) // A bad cookie yields a fresh session
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, SessionName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// UserID returns the signed-in user, if any.
func (s *Sessions) UserID(r *http.Request) (string, bool) {
	sess, err := s.store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[userIDKey].(string)
	return id, ok && id != ""
}
