package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects requests whose current user holds none of the given
// profile roles. A missing profile never passes.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user != nil && user.Profile != nil {
			for _, r := range roles {
				if user.Profile.Role == r {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    40301,
			"message": "you are not allowed to perform this action",
			"data":    nil,
		})
	}
}
