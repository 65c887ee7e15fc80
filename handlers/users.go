package handlers

import (
	"errors"
	"net/http"

	"referral-system/middleware"
	"referral-system/models"

	"github.com/gin-gonic/gin"
)

// GetProfile возвращает текущего пользователя.
func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type createUserRequest struct {
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	ReferredByID *string `json:"referred_by_id"`
}

// CreateUser создаёт пользователя (админский путь; обычные появляются
// через create-on-first-use). Вместе с ним создаётся пустой user_stats.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
		return
	}

	role := req.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	// Пароль - легаси-поле, реальная аутентификация у провайдера.
	hash := "external_identity"
	if req.Password != "" {
		var err error
		hash, err = models.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	user := &models.User{
		Email:        req.Email,
		Password:     hash,
		Role:         role,
		ReferredByID: req.ReferredByID,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error creating user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser возвращает пользователя со связями (статистика, подписка,
// рефералы).
func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("id")
	user, err := h.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	stats, _ := h.store.GetUserStats(c.Request.Context(), id)
	subscription, _ := h.store.GetLatestSubscription(c.Request.Context(), id)
	sent, _ := h.store.ListUserReferrals(c.Request.Context(), id)
	received, _ := h.store.GetReferralByReferred(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{
		"user":              user,
		"stats":             stats,
		"subscription":      subscription,
		"referrals_sent":    sent,
		"referral_received": received,
	})
}

type updateUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=USER ADMIN"`
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.UpdateUser(c.Request.Context(), c.Param("id"), req.Email, req.Role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error updating user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	err := h.store.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error deleting user"})
		return
	}
	c.Status(http.StatusNoContent)
}
