package ledger

import (
	"context"
	"errors"

	"referral-system/models"
	"referral-system/monitoring"

	"go.uber.org/zap"
)

const (
	// MinWithdrawalAmount - минимальная сумма вывода.
	MinWithdrawalAmount = 10.0

	// WithdrawalFeePercent - комиссия за вывод, процентов от запрошенной
	// суммы. Берётся ИЗ суммы, а не сверху.
	WithdrawalFeePercent = 2.0
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidMethod  = errors.New("invalid withdrawal method")
	ErrBelowMinimum   = errors.New("amount below withdrawal minimum")
	ErrInvalidStatus  = errors.New("invalid withdrawal status")
	ErrAlreadySettled = errors.New("withdrawal already settled")
)

// WithdrawalService - заявки на вывод и их админское подтверждение.
type WithdrawalService struct {
	store   Store
	ownerID string
	log     *zap.Logger
}

// NewWithdrawalService создаёт сервис. ownerID - аккаунт, собирающий
// комиссии; пустая строка отключает запись FEE-транзакций.
func NewWithdrawalService(store Store, ownerID string, log *zap.Logger) *WithdrawalService {
	return &WithdrawalService{store: store, ownerID: ownerID, log: log}
}

// WithdrawalResult сообщает клиенту комиссию и сумму к выплате.
type WithdrawalResult struct {
	Fee         float64 `json:"fee"`
	FinalAmount float64 `json:"final_amount"`
}

// Request проверяет заявку и списывает средства. Порядок проверок
// фиксирован, первая ошибка выигрывает: сумма > 0, метод, минимум,
// достаточный баланс. Гейт "активная платная подписка" стоит до хендлера.
// С баланса списывается полная запрошенная сумма; в заявке хранится
// сумма за вычетом комиссии.
func (s *WithdrawalService) Request(ctx context.Context, userID string, amount float64, method string) (*WithdrawalResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !models.ValidWithdrawalMethod(method) {
		return nil, ErrInvalidMethod
	}
	if amount < MinWithdrawalAmount {
		return nil, ErrBelowMinimum
	}

	fee := amount * WithdrawalFeePercent / 100
	finalAmount := amount - fee

	w := &models.Withdrawal{
		UserID: userID,
		Amount: finalAmount,
		Method: method,
		Status: models.WithdrawalPending,
	}
	if err := s.store.CreateWithdrawalRequest(ctx, w, amount, fee, s.ownerID); err != nil {
		if errors.Is(err, models.ErrInsufficientBalance) {
			monitoring.WithdrawalsRequestedTotal.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	monitoring.WithdrawalsRequestedTotal.WithLabelValues("accepted").Inc()
	s.log.Info("withdrawal requested",
		zap.String("user_id", userID),
		zap.Float64("amount", amount),
		zap.Float64("fee", fee),
		zap.String("method", method))
	return &WithdrawalResult{Fee: fee, FinalAmount: finalAmount}, nil
}

// SetStatus переводит заявку из PENDING в терминальный статус. FAILED
// возвращает на баланс сохранённую (после комиссии) сумму, COMPLETED
// баланс не трогает. Повторное подтверждение отклоняется.
func (s *WithdrawalService) SetStatus(ctx context.Context, id, status string) error {
	if status != models.WithdrawalCompleted && status != models.WithdrawalFailed {
		return ErrInvalidStatus
	}

	w, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if w.Status != models.WithdrawalPending {
		return ErrAlreadySettled
	}

	refund := 0.0
	if status == models.WithdrawalFailed {
		refund = w.Amount
	}
	if err := s.store.SettleWithdrawal(ctx, id, status, refund); err != nil {
		return err
	}

	s.log.Info("withdrawal settled",
		zap.String("withdrawal_id", id),
		zap.String("status", status),
		zap.Float64("refund", refund))
	return nil
}

// History возвращает заявки пользователя, свежие первыми.
func (s *WithdrawalService) History(ctx context.Context, userID string) ([]models.Withdrawal, error) {
	return s.store.ListUserWithdrawals(ctx, userID)
}
