package models

import (
	"time"
)

// Referral - направленное ребро referrer -> referred. Пользователь может
// быть приглашён не более одного раза, самоприглашение запрещено.
type Referral struct {
	ID         string    `json:"id" db:"id"`
	ReferrerID string    `json:"referrer_id" db:"referrer_id"`
	ReferredID string    `json:"referred_id" db:"referred_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
