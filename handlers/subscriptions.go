package handlers

import (
	"errors"
	"net/http"
	"time"

	"referral-system/models"

	"github.com/gin-gonic/gin"
)

type createSubscriptionRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	Type      string     `json:"type"`
	Price     float64    `json:"price"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateSubscription создаёт подписку. FREE получает "вечный" срок вне
// зависимости от переданного expires_at.
func (h *Handler) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subType := req.Type
	if subType == "" {
		subType = models.SubscriptionFree
	}
	if !models.ValidSubscriptionType(subType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription type"})
		return
	}

	expiresAt := models.FreeTierExpiry
	if subType != models.SubscriptionFree {
		if req.ExpiresAt == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at required for paid subscriptions"})
			return
		}
		expiresAt = *req.ExpiresAt
	}

	sub := &models.Subscription{
		UserID:    req.UserID,
		Type:      subType,
		Price:     req.Price,
		ExpiresAt: expiresAt,
	}
	if err := h.store.CreateSubscription(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error creating subscription"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) GetSubscription(c *gin.Context) {
	sub, err := h.store.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

type updateSubscriptionRequest struct {
	Type      string    `json:"type" binding:"required,oneof=FREE PREMIUM BUSINESS"`
	Price     float64   `json:"price"`
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}

func (h *Handler) UpdateSubscription(c *gin.Context) {
	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.UpdateSubscription(c.Request.Context(), c.Param("id"), req.Type, req.Price, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error updating subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subscription updated"})
}

func (h *Handler) DeleteSubscription(c *gin.Context) {
	err := h.store.DeleteSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error deleting subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelSubscription переводит подписку на бесплатный тариф.
func (h *Handler) CancelSubscription(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.CancelSubscription(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error canceling subscription"})
		return
	}

	sub, err := h.store.GetSubscription(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "subscription canceled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subscription canceled", "subscription": sub})
}
