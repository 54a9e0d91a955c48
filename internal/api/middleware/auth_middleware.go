package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edtech/internal/auth"
	"edtech/internal/database"
)

const accountKey = "account"

// AccountLookup 按主键加载账号。
type AccountLookup interface {
	FindAccountByID(ctx context.Context, id uint) (*database.Account, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并把当前账号注入上下文。
// 每次请求都重新加载账号，验证状态与角色变更即时生效。
func AuthMiddleware(tokens *auth.TokenService, accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.ValidateToken(rawToken)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			abortUnauthorized(c)
			return
		}

		account, err := accounts.FindAccountByID(c.Request.Context(), claims.AccountID)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// SetAccount 把账号写入上下文，供测试和内部调用使用。
func SetAccount(c *gin.Context, account *database.Account) {
	c.Set(accountKey, account)
}

// AccountFromContext 返回 AuthMiddleware 注入的账号。
func AccountFromContext(c *gin.Context) (*database.Account, bool) {
	value, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	account, ok := value.(*database.Account)
	return account, ok && account != nil
}
