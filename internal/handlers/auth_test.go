package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/charlesng35/authgate/internal/api"
	iauth "github.com/charlesng35/authgate/internal/auth"
	"github.com/charlesng35/authgate/internal/models"
	"github.com/charlesng35/authgate/internal/services"
)

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    map[string]any `json:"user"`
}

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	current time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	env := &testEnv{
		t:       t,
		db:      db,
		current: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	authSvc, err := services.NewAuthService(db, nil,
		services.WithClock(func() time.Time { return env.current }),
		services.WithClientURL("https://app.example.com"),
	)
	require.NoError(t, err)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret: "test-secret",
		Issuer: "authgate",
	})
	require.NoError(t, err)

	router, err := api.NewRouter(authSvc, jwtSvc, iauth.CookieConfig{}, api.Options{})
	require.NoError(t, err)
	env.router = router

	return env
}

func (e *testEnv) request(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) signup(name, email, password string) *httptest.ResponseRecorder {
	return e.request(http.MethodPost, "/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == iauth.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSignupEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.signup("Ann", "ann@x.com", "pw123456")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "User registered successfully", resp.Message)
	require.Equal(t, "ann@x.com", resp.User["email"])
	require.Equal(t, false, resp.User["is_verified"])

	// Credential material never appears in the serialized user.
	_, hasPassword := resp.User["password"]
	require.False(t, hasPassword)
	_, hasHash := resp.User["password_hash"]
	require.False(t, hasHash)

	cookie := sessionCookie(t, rec)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.False(t, cookie.Secure) // not production

	var stored models.User
	require.NoError(t, env.db.Take(&stored, "email = ?", "ann@x.com").Error)
	require.False(t, stored.IsVerified)
	require.NotNil(t, stored.VerificationToken)
	require.Len(t, *stored.VerificationToken, 6)
}

func TestSignupValidationAndDuplicate(t *testing.T) {
	env := newTestEnv(t)

	missing := env.request(http.MethodPost, "/auth/signup", map[string]string{"email": "ann@x.com"})
	require.Equal(t, http.StatusBadRequest, missing.Code)
	require.False(t, decode(t, missing).Success)

	first := env.signup("Ann", "ann@x.com", "pw123456")
	require.Equal(t, http.StatusCreated, first.Code)

	dup := env.signup("Ann", "ann@x.com", "pw123456")
	require.Equal(t, http.StatusBadRequest, dup.Code)
	resp := decode(t, dup)
	require.False(t, resp.Success)
	require.Equal(t, "User already exists", resp.Message)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Ann", "ann@x.com", "pw123456")

	var stored models.User
	require.NoError(t, env.db.Take(&stored, "email = ?", "ann@x.com").Error)
	code := *stored.VerificationToken

	rec := env.request(http.MethodPost, "/auth/verify-email", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "Email verified successfully", resp.Message)
	require.Equal(t, true, resp.User["is_verified"])

	// The consumed code cannot be replayed.
	replay := env.request(http.MethodPost, "/auth/verify-email", map[string]string{"code": code})
	require.Equal(t, http.StatusBadRequest, replay.Code)
	require.Equal(t, "Invalid or expired verification code", decode(t, replay).Message)
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Ann", "ann@x.com", "pw123456")

	var stored models.User
	require.NoError(t, env.db.Take(&stored, "email = ?", "ann@x.com").Error)
	code := *stored.VerificationToken

	env.current = env.current.Add(25 * time.Hour)

	rec := env.request(http.MethodPost, "/auth/verify-email", map[string]string{"code": code})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid or expired verification code", decode(t, rec).Message)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Ann", "ann@x.com", "pw123456")

	wrong := env.request(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ann@x.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, wrong.Code)
	require.Equal(t, "Invalid credentials", decode(t, wrong).Message)

	var stored models.User
	require.NoError(t, env.db.Take(&stored, "email = ?", "ann@x.com").Error)
	require.Nil(t, stored.LastLoginAt)

	ok := env.request(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ann@x.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	resp := decode(t, ok)
	require.True(t, resp.Success)
	require.Equal(t, "Logged in successfully", resp.Message)
	require.NotEmpty(t, resp.User["last_login_at"])
	_, hasPassword := resp.User["password"]
	require.False(t, hasPassword)

	cookie := sessionCookie(t, ok)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "Logged out successfully", resp.Message)

	cookie := sessionCookie(t, rec)
	require.Empty(t, cookie.Value)
	require.Less(t, cookie.MaxAge, 0)
}

func TestForgotAndResetPasswordEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Ann", "ann@x.com", "pw123456")

	unknown := env.request(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ghost@x.com"})
	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, "User not found", decode(t, unknown).Message)

	forgot := env.request(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ann@x.com"})
	require.Equal(t, http.StatusOK, forgot.Code)
	require.Equal(t, "Password reset email sent", decode(t, forgot).Message)

	var stored models.User
	require.NoError(t, env.db.Take(&stored, "email = ?", "ann@x.com").Error)
	require.NotNil(t, stored.ResetPasswordToken)
	token := *stored.ResetPasswordToken

	reset := env.request(http.MethodPost, "/auth/reset-password/"+token, map[string]string{"password": "newpass99"})
	require.Equal(t, http.StatusOK, reset.Code, reset.Body.String())
	require.Equal(t, "Password reset successful", decode(t, reset).Message)

	// Old password is rejected, the new one authenticates.
	old := env.request(http.MethodPost, "/auth/login", map[string]string{"email": "ann@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusBadRequest, old.Code)
	fresh := env.request(http.MethodPost, "/auth/login", map[string]string{"email": "ann@x.com", "password": "newpass99"})
	require.Equal(t, http.StatusOK, fresh.Code)

	// Consumed token cannot be replayed.
	replay := env.request(http.MethodPost, "/auth/reset-password/"+token, map[string]string{"password": "again1234"})
	require.Equal(t, http.StatusBadRequest, replay.Code)
	require.Equal(t, "Invalid or expired reset token", decode(t, replay).Message)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Ann", "ann@x.com", "pw123456")

	forgot := env.request(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ann@x.com"})
	require.Equal(t, http.StatusOK, forgot.Code)

	var stored models.User
	require.NoError(t, env.db.Take(&stored, "email = ?", "ann@x.com").Error)
	token := *stored.ResetPasswordToken

	env.current = env.current.Add(2 * time.Hour)

	rec := env.request(http.MethodPost, "/auth/reset-password/"+token, map[string]string{"password": "newpass99"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid or expired reset token", decode(t, rec).Message)

	// Password unchanged.
	login := env.request(http.MethodPost, "/auth/login", map[string]string{"email": "ann@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, login.Code)
}

func TestCheckAuthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	anonymous := env.request(http.MethodGet, "/auth/check-auth", nil)
	require.Equal(t, http.StatusUnauthorized, anonymous.Code)

	signup := env.signup("Ann", "ann@x.com", "pw123456")
	cookie := sessionCookie(t, signup)

	rec := env.request(http.MethodGet, "/auth/check-auth", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "ann@x.com", resp.User["email"])

	forged := &http.Cookie{Name: iauth.SessionCookieName, Value: "not-a-token"}
	bad := env.request(http.MethodGet, "/auth/check-auth", nil, forged)
	require.Equal(t, http.StatusUnauthorized, bad.Code)
}
