package handlers

import (
	"errors"
	"net/http"

	"referral-system/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTransactions(c *gin.Context) {
	txs, err := h.store.ListTransactions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

type createTransactionRequest struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type" binding:"required"`
	Source *string `json:"source"`
}

// CreateTransaction пишет транзакцию. DEPOSIT и FEE запускают начисление
// доли рефереру; его неудача не валит запрос.
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidTransactionType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction type"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than zero"})
		return
	}

	tx := &models.Transaction{
		UserID: req.UserID,
		Amount: req.Amount,
		Type:   req.Type,
		Source: req.Source,
	}
	if err := h.store.CreateTransaction(c.Request.Context(), tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error creating transaction"})
		return
	}

	if models.SharesRevenue(req.Type) {
		h.revenue.ShareRevenue(c.Request.Context(), req.UserID, req.Amount)
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.store.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// ListUserTransactions - транзакции пользователя, опционально ?type=.
func (h *Handler) ListUserTransactions(c *gin.Context) {
	txType := c.Query("type")
	if txType != "" && !models.ValidTransactionType(txType) {
		txType = ""
	}

	txs, err := h.store.ListUserTransactions(c.Request.Context(), c.Param("userId"), txType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	err := h.store.DeleteTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error deleting transaction"})
		return
	}
	c.Status(http.StatusNoContent)
}
