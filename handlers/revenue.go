package handlers

import (
	"errors"
	"net/http"

	"referral-system/ledger"
	"referral-system/middleware"

	"github.com/gin-gonic/gin"
)

type shareRevenueRequest struct {
	Amount float64 `json:"amount"`
}

// ShareRevenue - явное начисление 10% рефереру текущего пользователя.
// В отличие от фонового начисления, здесь отсутствие реферера - ошибка
// клиенту.
func (h *Handler) ShareRevenue(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req shareRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	result, err := h.revenue.Share(c.Request.Context(), user.ID, req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrNoReferrer) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no referrer found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "revenue shared successfully",
		"share_amount": result.ShareAmount,
	})
}

// RewardReferrer - разовый бонус рефереру за регистрацию текущего
// пользователя.
func (h *Handler) RewardReferrer(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.revenue.RewardReferrer(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNoReferrer) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no referrer found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "referrer rewarded successfully",
		"reward_amount": result.ShareAmount,
	})
}
