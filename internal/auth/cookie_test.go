package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func recordCookies(t *testing.T, write func(c *gin.Context)) []*http.Cookie {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	write(c)

	return recorder.Result().Cookies()
}

func TestSetSessionCookieAttributes(t *testing.T) {
	cookies := recordCookies(t, func(c *gin.Context) {
		SetSessionCookie(c, "signed-token", CookieConfig{Secure: true, TTL: 7 * 24 * time.Hour})
	})

	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, SessionCookieName, cookie.Name)
	require.Equal(t, "signed-token", cookie.Value)
	require.Equal(t, "/", cookie.Path)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
}

func TestSetSessionCookieDefaultsTTL(t *testing.T) {
	cookies := recordCookies(t, func(c *gin.Context) {
		SetSessionCookie(c, "signed-token", CookieConfig{})
	})

	require.Len(t, cookies, 1)
	require.Equal(t, int(DefaultSessionTTL.Seconds()), cookies[0].MaxAge)
	require.False(t, cookies[0].Secure)
}

func TestClearSessionCookie(t *testing.T) {
	cookies := recordCookies(t, func(c *gin.Context) {
		ClearSessionCookie(c, CookieConfig{})
	})

	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, SessionCookieName, cookie.Name)
	require.Empty(t, cookie.Value)
	require.Less(t, cookie.MaxAge, 0)
	require.True(t, cookie.HttpOnly)
}
