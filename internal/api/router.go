package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/charlesng35/authgate/internal/auth"
	"github.com/charlesng35/authgate/internal/handlers"
	"github.com/charlesng35/authgate/internal/middleware"
	"github.com/charlesng35/authgate/internal/services"
)

// Options carries the optional surfaces mounted alongside the auth routes.
type Options struct {
	MetricsEnabled  bool
	MetricsEndpoint string
}

// NewRouter builds the Gin engine, wires middleware and registers the auth routes.
func NewRouter(authSvc *services.AuthService, jwt *iauth.JWTService, cookies iauth.CookieConfig, opts Options) (*gin.Engine, error) {
	if authSvc == nil {
		return nil, fmt.Errorf("auth service must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if opts.MetricsEnabled {
		endpoint := opts.MetricsEndpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(authSvc, jwt, cookies)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password/:token", authHandler.ResetPassword)

		auth.GET("/check-auth", middleware.Auth(jwt), authHandler.CheckAuth)
	}

	return r, nil
}
