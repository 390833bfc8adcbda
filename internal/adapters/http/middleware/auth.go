// Package middleware - Local API authentication.
//
// The ops API is loopback-only in normal operation: the POS UI and the
// agent share the device. The guard still exists for the kiosk setups
// where the UI runs on a companion tablet and reaches the agent over the
// venue LAN with a shared device token.
package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthConfig configures the local API guard.
type AuthConfig struct {
	// DeviceToken is the shared secret non-loopback callers must present
	// as "Authorization: Bearer <token>". Empty means loopback-only.
	DeviceToken string
	// AllowLoopback lets 127.0.0.1/::1 callers skip the token check.
	AllowLoopback bool
	// SkipPaths bypass the guard entirely (probes, metrics).
	SkipPaths []string
}

// DefaultAuthConfig is the single-device setup: loopback trusted, no token.
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		AllowLoopback: true,
		SkipPaths:     []string{"/health", "/ready", "/live", "/metrics"},
	}
}

// Auth guards the local API.
//
// Decision order:
// 1. Skip paths pass
// 2. Loopback callers pass when AllowLoopback is set
// 3. Everyone else needs the device token; no token configured means 403
func Auth(config *AuthConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		if config.AllowLoopback && isLoopback(c.Request.RemoteAddr) {
			c.Next()
			return
		}

		if config.DeviceToken == "" {
			abortWithForbidden(c, "Remote access to the local API is disabled")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithUnauthorized(c, "Invalid authorization header format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(config.DeviceToken)) != 1 {
			abortWithUnauthorized(c, "Invalid device token")
			return
		}

		c.Next()
	}
}

// isLoopback reports whether the remote address is 127.0.0.0/8 or ::1.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// abortWithUnauthorized sends a 401 response.
func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// abortWithForbidden sends a 403 response.
func abortWithForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}
