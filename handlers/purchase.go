package handlers

import (
	"net/http"

	"referral-system/middleware"
	"referral-system/models"

	"github.com/gin-gonic/gin"
)

type purchaseRequest struct {
	SubscriptionType string  `json:"subscription_type" binding:"required"`
	Amount           float64 `json:"amount"`
}

// Purchase фиксирует покупку подписки текущим пользователем: транзакция
// PURCHASE плюс фоновое начисление доли рефереру.
func (h *Handler) Purchase(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !models.ValidSubscriptionType(req.SubscriptionType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription type"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	tx := &models.Transaction{
		UserID: user.ID,
		Amount: req.Amount,
		Type:   models.TransactionPurchase,
	}
	if err := h.store.CreateTransaction(c.Request.Context(), tx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.revenue.ShareRevenue(c.Request.Context(), user.ID, req.Amount)

	c.JSON(http.StatusCreated, gin.H{
		"message":     "purchase recorded",
		"transaction": tx,
	})
}
