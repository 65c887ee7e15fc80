package models

import (
	"time"
)

const (
	SubscriptionFree     = "FREE"
	SubscriptionPremium  = "PREMIUM"
	SubscriptionBusiness = "BUSINESS"
)

// FreeTierExpiry - сентинел "никогда не истекает" для бесплатного тарифа.
var FreeTierExpiry = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

type Subscription struct {
	ID                      string     `json:"id" db:"id"`
	UserID                  string     `json:"user_id" db:"user_id"`
	Type                    string     `json:"type" db:"type"`
	Price                   float64    `json:"price" db:"price"`
	ExpiresAt               time.Time  `json:"expires_at" db:"expires_at"`
	ProcessorSubscriptionID *string    `json:"processor_subscription_id,omitempty" db:"processor_subscription_id"`
	RemindedAt              *time.Time `json:"reminded_at,omitempty" db:"reminded_at"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at" db:"updated_at"`
}

// IsActive - подписка ещё не истекла.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// IsPaid - активная платная подписка (не FREE).
func (s *Subscription) IsPaid(now time.Time) bool {
	return s.IsActive(now) && s.Type != SubscriptionFree
}

func ValidSubscriptionType(t string) bool {
	switch t {
	case SubscriptionFree, SubscriptionPremium, SubscriptionBusiness:
		return true
	}
	return false
}

// ExpiringSubscription - строка reminder-прохода: подписка + email владельца.
type ExpiringSubscription struct {
	Subscription
	Email string `json:"email" db:"email"`
}

// TypeCount - разбивка подписок по тарифам для админ-панели.
type TypeCount struct {
	Type  string `json:"type" db:"type"`
	Count int64  `json:"count" db:"count"`
}
