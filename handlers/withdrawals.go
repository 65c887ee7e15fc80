package handlers

import (
	"errors"
	"net/http"

	"referral-system/ledger"
	"referral-system/middleware"
	"referral-system/models"

	"github.com/gin-gonic/gin"
)

type withdrawalRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// RequestWithdrawal создаёт заявку на вывод. Гейт платной подписки стоит
// в цепочке middleware до этого хендлера.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.withdrawals.Request(c.Request.Context(), user.ID, req.Amount, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		case errors.Is(err, ledger.ErrInvalidMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal method"})
		case errors.Is(err, ledger.ErrBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "minimum withdrawal amount is 10",
			})
		case errors.Is(err, models.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "withdrawal request submitted",
		"fee":          result.Fee,
		"final_amount": result.FinalAmount,
	})
}

// ListWithdrawals - история выводов текущего пользователя.
func (h *Handler) ListWithdrawals(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	withdrawals, err := h.withdrawals.History(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

type withdrawalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetWithdrawalStatus - админское подтверждение/отклонение заявки.
func (h *Handler) SetWithdrawalStatus(c *gin.Context) {
	var req withdrawalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.withdrawals.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, ledger.ErrAlreadySettled):
			c.JSON(http.StatusBadRequest, gin.H{"error": "withdrawal already settled"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal status updated"})
}
