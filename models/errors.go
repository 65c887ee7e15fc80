package models

import "errors"

var (
	// ErrNotFound возвращают все реализации хранилища, когда записи нет.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientBalance - условное списание не прошло: на балансе
	// меньше запрошенной суммы.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
