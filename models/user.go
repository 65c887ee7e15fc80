package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Password     string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	ReferredByID *string   `json:"referred_by_id,omitempty" db:"referred_by_id"`
	ReferralCode string    `json:"referral_code" db:"referral_code"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats - изменяемый агрегат заработка пользователя. Пишут в него
// только движок revenue share, вывод средств и админское подтверждение.
type UserStats struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Earnings  float64   `json:"earnings" db:"earnings"`
	Referrals int       `json:"referrals" db:"referrals"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
