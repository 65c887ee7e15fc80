package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"referral-system/config"

	"github.com/gin-gonic/gin"
)

// WebhookKeyMiddleware проверяет общий ключ процессора в заголовке
// Authorization. Webhook-endpoint не ходит через пользовательский JWT.
func WebhookKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.WebhookKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "webhook key not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.ToLower(parts[0]) == "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(cfg.WebhookKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook key"})
			return
		}
		c.Next()
	}
}
