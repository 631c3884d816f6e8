package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/aideas-api/internal/logger"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email,
// X-User-Role). Used when the API runs behind the cloud gateway, which
// handles JWT validation and billing checks.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used in the hosted environment with proper network
// isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetHeader("X-User-ID")

		if userIDStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id_str", userIDStr)
		c.Set("user_email", c.GetHeader("X-User-Email"))
		c.Set("user_role", c.GetHeader("X-User-Role"))

		fields := logger.WithContext(c)
		fields["user_id"] = userIDStr
		logger.Debug("Gateway user resolved", fields)

		c.Next()
	}
}

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
// It allows all requests without authentication.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set a dummy user ID for logging purposes
		c.Set("user_id_str", "anonymous")
		c.Next()
	}
}
