package handlers

import (
	"errors"
	"net/http"

	"referral-system/middleware"
	"referral-system/models"

	"github.com/gin-gonic/gin"
)

// Dashboard собирает сводку текущего пользователя: баланс, рефералы,
// выводы и последняя подписка.
func (h *Handler) Dashboard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	stats, err := h.store.GetUserStats(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	referralCount, err := h.store.CountReferrals(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	withdrawals, err := h.store.ListUserWithdrawals(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var subscription *models.Subscription
	sub, err := h.store.GetLatestSubscription(ctx, user.ID)
	switch {
	case err == nil:
		subscription = sub
	case errors.Is(err, models.ErrNotFound):
		// подписки ещё нет, в сводке будет null
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":        stats.Earnings,
		"referral_count": referralCount,
		"withdrawals":    withdrawals,
		"subscription":   subscription,
	})
}

// AdminDashboard - агрегаты по всей системе, только для администраторов.
func (h *Handler) AdminDashboard(c *gin.Context) {
	stats, err := h.store.AdminStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
