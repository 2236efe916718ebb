package app

import (
	"github.com/charlesng35/authgate/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// CookieConfig derives session cookie settings from the server configuration.
func (c *Config) CookieConfig() auth.CookieConfig {
	ttl := c.Auth.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.CookieConfig{
		Secure: c.Server.IsProduction(),
		TTL:    ttl,
	}
}
