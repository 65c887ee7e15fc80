package models

import (
	"time"
)

const (
	TransactionDeposit      = "DEPOSIT"
	TransactionPurchase     = "PURCHASE"
	TransactionFee          = "FEE"
	TransactionRevenueShare = "REVENUE_SHARE"
)

// Transaction - append-only запись. Никогда не обновляется; удаление
// только через админский endpoint.
type Transaction struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Type      string    `json:"type" db:"type"`
	Source    *string   `json:"source,omitempty" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func ValidTransactionType(t string) bool {
	switch t {
	case TransactionDeposit, TransactionPurchase, TransactionFee, TransactionRevenueShare:
		return true
	}
	return false
}

// SharesRevenue - типы транзакций, после которых начисляется доля рефереру.
func SharesRevenue(t string) bool {
	return t == TransactionDeposit || t == TransactionFee
}
