package models

import (
	"time"
)

const (
	WithdrawalPending   = "PENDING"
	WithdrawalCompleted = "COMPLETED"
	WithdrawalFailed    = "FAILED"
)

const (
	MethodPayPal       = "PAYPAL"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodCrypto       = "CRYPTO"
)

// Withdrawal хранит сумму ПОСЛЕ вычета комиссии; с баланса при создании
// списывается полная запрошенная сумма.
type Withdrawal struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Method    string    `json:"method" db:"method"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func ValidWithdrawalMethod(m string) bool {
	switch m {
	case MethodPayPal, MethodBankTransfer, MethodCrypto:
		return true
	}
	return false
}
