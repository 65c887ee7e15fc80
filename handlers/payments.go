package handlers

import (
	"net/http"
	"time"

	"referral-system/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type processorEvent struct {
	Type             string  `json:"type" binding:"required"`
	UserID           string  `json:"user_id"`
	SubscriptionID   string  `json:"subscription_id"`
	PriceID          string  `json:"price_id"`
	Price            float64 `json:"price"`
	CurrentPeriodEnd int64   `json:"current_period_end"`
}

// ProcessorEvent обрабатывает webhook платёжного процессора. Неизвестные
// типы событий подтверждаются 200, чтобы процессор не ретраил их вечно.
func (h *Handler) ProcessorEvent(c *gin.Context) {
	var event processorEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	switch event.Type {
	case "subscription.created", "subscription.updated":
		if event.UserID == "" || event.SubscriptionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing user_id or subscription_id"})
			return
		}
		subType, ok := h.cfg.PlanForPriceID(event.PriceID)
		if !ok {
			logging.Logger.Warn("🛑 Неизвестный price_id в событии процессора",
				zap.String("price_id", event.PriceID),
				zap.String("user_id", event.UserID))
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown price id"})
			return
		}

		expiresAt := time.Unix(event.CurrentPeriodEnd, 0).UTC()
		err := h.store.UpsertProcessorSubscription(c.Request.Context(),
			event.UserID, event.SubscriptionID, subType, event.Price, expiresAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		logging.Logger.Info("✅ Подписка синхронизирована из события процессора",
			zap.String("user_id", event.UserID),
			zap.String("type", subType))
		c.JSON(http.StatusOK, gin.H{"received": true})

	case "subscription.deleted":
		if event.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing user_id"})
			return
		}
		if err := h.store.DeleteUserSubscriptions(c.Request.Context(), event.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})

	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
