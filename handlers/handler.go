package handlers

import (
	"context"
	"net/http"
	"time"

	"referral-system/config"
	"referral-system/ledger"
	"referral-system/middleware"
	"referral-system/models"

	"github.com/gin-gonic/gin"
)

// Store - всё, что нужно HTTP-слою от хранилища.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id, email, role string) error
	DeleteUser(ctx context.Context, id string) error
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)

	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, id, subType string, price float64, expiresAt time.Time) error
	DeleteSubscription(ctx context.Context, id string) error
	CancelSubscription(ctx context.Context, id string) error
	UpsertProcessorSubscription(ctx context.Context, userID, processorID, subType string, price float64, expiresAt time.Time) error
	DeleteUserSubscriptions(ctx context.Context, userID string) error

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListUserTransactions(ctx context.Context, userID, txType string) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	CreateReferral(ctx context.Context, r *models.Referral) error
	GetReferralByReferred(ctx context.Context, referredID string) (*models.Referral, error)
	ListUserReferrals(ctx context.Context, referrerID string) ([]models.Referral, error)
	ListReferrals(ctx context.Context) ([]models.Referral, error)
	CountReferrals(ctx context.Context, referrerID string) (int64, error)

	ListUserWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error)

	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

// Handler связывает маршруты с хранилищем и сервисами леджера.
type Handler struct {
	cfg         *config.Config
	store       Store
	revenue     *ledger.RevenueService
	withdrawals *ledger.WithdrawalService
}

func New(cfg *config.Config, store Store, revenue *ledger.RevenueService, withdrawals *ledger.WithdrawalService) *Handler {
	return &Handler{
		cfg:         cfg,
		store:       store,
		revenue:     revenue,
		withdrawals: withdrawals,
	}
}

// Register вешает все маршруты на роутер.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", h.Health)

	// События платёжного процессора защищены общим ключом, не JWT.
	api.POST("/payments/events", middleware.WebhookKeyMiddleware(h.cfg), h.ProcessorEvent)

	authed := api.Group("", middleware.AuthMiddleware(h.cfg, h.store))

	users := authed.Group("/users")
	users.GET("/profile", h.GetProfile)
	users.GET("", middleware.AdminMiddleware(), h.ListUsers)
	users.POST("", middleware.AdminMiddleware(), h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", middleware.AdminMiddleware(), h.UpdateUser)
	users.DELETE("/:id", middleware.AdminMiddleware(), h.DeleteUser)

	subs := authed.Group("/subscriptions")
	subs.POST("", h.CreateSubscription)
	subs.GET("/:id", h.GetSubscription)
	subs.PUT("/:id", h.UpdateSubscription)
	subs.DELETE("/:id", h.DeleteSubscription)
	subs.PUT("/:id/cancel", h.CancelSubscription)

	txs := authed.Group("/transactions")
	txs.GET("", middleware.AdminMiddleware(), h.ListTransactions)
	txs.POST("", h.CreateTransaction)
	txs.GET("/:id", h.GetTransaction)
	txs.GET("/user/:userId", h.ListUserTransactions)
	txs.DELETE("/:id", middleware.AdminMiddleware(), h.DeleteTransaction)

	withdrawals := authed.Group("/withdrawals")
	limiter := middleware.NewRateLimiter(10, time.Minute)
	withdrawals.POST("", limiter.Middleware(), middleware.RequirePaidSubscription(h.store), h.RequestWithdrawal)
	withdrawals.GET("", h.ListWithdrawals)
	withdrawals.PATCH("/:id", middleware.AdminMiddleware(), h.SetWithdrawalStatus)

	referrals := authed.Group("/referrals")
	referrals.POST("", h.CreateReferral)
	referrals.GET("/user/:userId", h.ListUserReferrals)
	referrals.GET("", middleware.AdminMiddleware(), h.ListReferrals)

	revenue := authed.Group("/revenue")
	revenue.POST("/share", h.ShareRevenue)
	revenue.POST("/reward", h.RewardReferrer)

	authed.POST("/purchase", h.Purchase)
	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/admin/dashboard", middleware.AdminMiddleware(), h.AdminDashboard)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
