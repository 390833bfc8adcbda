package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authRouter(config *AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(config))
	router.GET("/api/v1/sync/stats", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuth_LoopbackPasses(t *testing.T) {
	router := authRouter(DefaultAuthConfig())

	req := httptest.NewRequest("GET", "/api/v1/sync/stats", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_IPv6LoopbackPasses(t *testing.T) {
	router := authRouter(DefaultAuthConfig())

	req := httptest.NewRequest("GET", "/api/v1/sync/stats", nil)
	req.RemoteAddr = "[::1]:54321"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_RemoteWithoutTokenConfiguredIsForbidden(t *testing.T) {
	router := authRouter(DefaultAuthConfig())

	req := httptest.NewRequest("GET", "/api/v1/sync/stats", nil)
	req.RemoteAddr = "192.168.1.50:54321"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_RemoteWithDeviceToken(t *testing.T) {
	config := DefaultAuthConfig()
	config.DeviceToken = "festival-device-secret"
	router := authRouter(config)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token passes", "Bearer festival-device-secret", http.StatusOK},
		{"wrong token rejected", "Bearer wrong-secret", http.StatusUnauthorized},
		{"missing header rejected", "", http.StatusUnauthorized},
		{"malformed header rejected", "festival-device-secret", http.StatusUnauthorized},
		{"wrong scheme rejected", "Basic festival-device-secret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/sync/stats", nil)
			req.RemoteAddr = "192.168.1.50:54321"
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAuth_SkipPathsBypassGuard(t *testing.T) {
	router := authRouter(DefaultAuthConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "192.168.1.50:54321"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_LoopbackDisabledRequiresToken(t *testing.T) {
	config := &AuthConfig{
		DeviceToken:   "festival-device-secret",
		AllowLoopback: false,
	}
	router := authRouter(config)

	req := httptest.NewRequest("GET", "/api/v1/sync/stats", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:8080", true},
		{"[::1]:8080", true},
		{"127.0.0.5:1234", true},
		{"192.168.1.10:8080", false},
		{"10.0.0.1:443", false},
		{"not-an-address", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isLoopback(tt.addr))
		})
	}
}
