package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const principalKey = "userID"

// RequireUser extracts the caller's identity set by the upstream auth layer.
// The X-User-ID header is the normal path; the user_id query parameter is
// accepted for websocket upgrades, where browsers cannot set headers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = c.Query("user_id")
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(principalKey, userID)
		c.Next()
	}
}

// CurrentUser returns the authenticated caller id stored by RequireUser.
func CurrentUser(c *gin.Context) string {
	return c.GetString(principalKey)
}
