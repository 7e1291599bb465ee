package auth

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
)

// SessionName is the cookie carrying the refresh-token session.
const SessionName = "pomodo_session"

// NewSessionStore returns the signed cookie store holding refresh tokens.
func NewSessionStore(secret string, maxAge time.Duration, secure bool) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/api/auth",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
