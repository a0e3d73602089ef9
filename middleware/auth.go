package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CalendarTokenKey is the context key the auth middleware stores the
// caller-supplied provider credential under.
const CalendarTokenKey = "calendarAccessToken"

// CalendarAuthMiddleware extracts the bearer credential scoped to the
// calendar owner. The engine never refreshes credentials; a missing token is
// rejected here, before any provider call is attempted.
func CalendarAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"kind":  "unauthorized",
			})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"kind":  "unauthorized",
			})
			return
		}

		c.Set(CalendarTokenKey, token)
		c.Next()
	}
}

// CalendarToken returns the credential stored by CalendarAuthMiddleware.
func CalendarToken(c *gin.Context) string {
	token, _ := c.Get(CalendarTokenKey)
	s, _ := token.(string)
	return s
}
