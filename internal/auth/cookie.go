package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie under which the signed session token travels.
const SessionCookieName = "token"

// CookieConfig controls how the session cookie is written to responses.
type CookieConfig struct {
	// Secure marks the cookie as HTTPS-only; enabled in production.
	Secure bool
	// TTL controls Max-Age; defaults to the session token validity window.
	TTL time.Duration
}

// SetSessionCookie attaches the session token to the response. The cookie is
// HttpOnly (inaccessible to page scripts) and SameSite=Strict (rejected on
// cross-site navigation-triggered requests).
func SetSessionCookie(c *gin.Context, token string, cfg CookieConfig) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie instructs the client to discard its session credential.
func ClearSessionCookie(c *gin.Context, cfg CookieConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
