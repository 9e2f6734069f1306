package server

import (
	"net/http"
	"time"

	"github.com/walletwise/auth-server/sessions"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// setSessionCookies stores both tokens in HttpOnly cookies that expire with
// the tokens themselves.
func (s *Server) setSessionCookies(w http.ResponseWriter, pair sessions.Pair) {
	http.SetCookie(w, s.sessionCookie(accessTokenCookie, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, s.sessionCookie(refreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c := s.sessionCookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (s *Server) sessionCookie(name, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	// The frontend is served from another site in production.
	if s.config.IsProduction() {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
