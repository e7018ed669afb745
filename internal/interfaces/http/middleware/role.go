package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireOperator rejects requests whose session does not carry the
// OPERATOR role. Must run after JWTAuthMiddleware.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.IsOperator() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Operator role required",
				},
			})
			return
		}
		c.Next()
	}
}

// RequireEngagementAccess checks that the session may act on the engagement
// named by the given path parameter. Operators pass unconditionally; clients
// must hold the engagement in their grant list.
func RequireEngagementAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}

		// Ungranted engagement ids answer exactly like missing ones, so a
		// client cannot probe whether someone else's engagement exists.
		engagementID := c.Param(param)
		if engagementID == "" || !claims.CanAccessEngagement(engagementID) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_NOT_FOUND",
					"message": "Engagement not found",
				},
			})
			return
		}
		c.Next()
	}
}
