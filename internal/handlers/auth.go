package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/authgate/internal/auth"
	"github.com/charlesng35/authgate/internal/middleware"
	"github.com/charlesng35/authgate/internal/services"
	"github.com/charlesng35/authgate/pkg/errors"
	"github.com/charlesng35/authgate/pkg/response"
)

// AuthHandler exposes the authentication flows over HTTP. It owns session
// cookie issuance; all account-state transitions live in the AuthService.
type AuthHandler struct {
	auth    *services.AuthService
	jwt     *iauth.JWTService
	cookies iauth.CookieConfig
}

func NewAuthHandler(auth *services.AuthService, jwt *iauth.JWTService, cookies iauth.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, jwt: jwt, cookies: cookies}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type verifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !h.issueSession(c, user.ID) {
		return
	}

	response.Success(c, http.StatusCreated, "User registered successfully", user.Public())
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Email verified successfully", user.Public())
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !h.issueSession(c, user.ID) {
		return
	}

	response.Success(c, http.StatusOK, "Logged in successfully", user.Public())
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	iauth.ClearSessionCookie(c, h.cookies)
	response.Success(c, http.StatusOK, "Logged out successfully", nil)
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Password reset email sent", nil)
}

// POST /auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Password reset successful", nil)
}

// GET /auth/check-auth
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, "Authenticated", user.Public())
}

// issueSession mints a session token and attaches it as the session cookie.
func (h *AuthHandler) issueSession(c *gin.Context, userID string) bool {
	token, err := h.jwt.GenerateSessionToken(userID)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return false
	}

	cfg := h.cookies
	if cfg.TTL <= 0 {
		cfg.TTL = h.jwt.SessionTTL()
	}
	iauth.SetSessionCookie(c, token, cfg)
	return true
}
