package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"referral-system/auth"
	"referral-system/config"
	"referral-system/models"

	"github.com/gin-gonic/gin"
)

// SubscriptionStore - проверка активной подписки для платных фич.
type SubscriptionStore interface {
	GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// AuthMiddleware проверяет bearer-токен и кладёт разрешённого пользователя
// в контекст запроса. Роль живёт только в контексте этого запроса -
// никакого общего состояния между запросами.
func AuthMiddleware(cfg *config.Config, store auth.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		claims, err := auth.ValidateToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		user, err := auth.ResolveUser(c.Request.Context(), store, claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
		c.Next()
	}
}

// AdminMiddleware пропускает только пользователей с ролью ADMIN.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// RequirePaidSubscription - гейт платных операций: нужна активная
// НЕбесплатная подписка.
func RequirePaidSubscription(store SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		sub, err := store.GetActiveSubscription(c.Request.Context(), user.ID)
		if err != nil || !sub.IsPaid(time.Now()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "active paid subscription required to access this feature",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser достаёт разрешённого пользователя из контекста запроса.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}
