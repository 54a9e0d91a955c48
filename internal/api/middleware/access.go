package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const unverifiedMessage = "email address not verified"

// RequireVerified 阻止未完成邮箱验证的账号访问业务接口。
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := AccountFromContext(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		if !account.Verified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": unverifiedMessage})
			return
		}
		c.Next()
	}
}

// RequireRole 只放行角色在 roles 中的账号。
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		account, ok := AccountFromContext(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		if _, ok := allowed[account.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
