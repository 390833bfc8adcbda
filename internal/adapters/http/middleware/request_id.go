// Package middleware contains the HTTP middleware of the local ops API.
//
// Middleware in Gin are functions running before/after handlers, used for
// cross-cutting concerns: logging, auth, metrics, recovery.
//
// SOLID:
// - SRP: each middleware owns one concern
// - OCP: new middleware composes without touching existing ones
//
// Pattern: Chain of Responsibility
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/pkg/logger"
)

const (
	// RequestIDHeader is the request ID header name.
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey stores the request ID in the gin context.
	RequestIDContextKey = "request_id"
)

// RequestID tags every request with a unique ID.
//
// A caller-supplied X-Request-ID is honoured so the POS UI can correlate
// its own logs with the agent's; otherwise a fresh UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)

		// Downstream logs pick the ID up from the request context.
		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID extracts the request ID from the gin context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDContextKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}
