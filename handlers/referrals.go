package handlers

import (
	"errors"
	"net/http"

	"referral-system/models"

	"github.com/gin-gonic/gin"
)

type createReferralRequest struct {
	ReferrerID     string `json:"referrer_id" binding:"required"`
	ReferredUserID string `json:"referred_user_id" binding:"required"`
}

// CreateReferral создаёт ребро referrer -> referred. Самоприглашение и
// повторное приглашение отклоняются.
func (h *Handler) CreateReferral(c *gin.Context) {
	var req createReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ReferredUserID == req.ReferrerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot refer yourself"})
		return
	}

	if _, err := h.store.GetReferralByReferred(c.Request.Context(), req.ReferredUserID); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is already referred"})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	referral := &models.Referral{
		ReferrerID: req.ReferrerID,
		ReferredID: req.ReferredUserID,
	}
	if err := h.store.CreateReferral(c.Request.Context(), referral); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create referral"})
		return
	}
	c.JSON(http.StatusCreated, referral)
}

func (h *Handler) ListUserReferrals(c *gin.Context) {
	referrals, err := h.store.ListUserReferrals(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, referrals)
}

func (h *Handler) ListReferrals(c *gin.Context) {
	referrals, err := h.store.ListReferrals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, referrals)
}
