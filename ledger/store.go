package ledger

import (
	"context"

	"referral-system/models"
)

// Store - часть хранилища, нужная движку начислений и выводу средств.
// Реализации обязаны выполнять Record/Create/Settle атомарно.
type Store interface {
	FindReferrer(ctx context.Context, referredID string) (string, error)
	RecordRevenueShare(ctx context.Context, referrerID string, amount float64, bumpReferrals bool) error
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)
	CreateWithdrawalRequest(ctx context.Context, w *models.Withdrawal, debit, fee float64, ownerID string) error
	GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error)
	SettleWithdrawal(ctx context.Context, id, status string, refund float64) error
	ListUserWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error)
}
