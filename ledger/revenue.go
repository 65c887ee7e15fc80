package ledger

import (
	"context"
	"errors"

	"referral-system/models"
	"referral-system/monitoring"

	"go.uber.org/zap"
)

const (
	// ReferralSharePercent - фиксированная доля реферера (10%).
	ReferralSharePercent = 0.10

	// SignupBonus - разовый бонус рефереру за регистрацию приглашённого.
	SignupBonus = 5.0
)

// ErrNoReferrer - у пользователя нет реферера.
var ErrNoReferrer = errors.New("no referrer found")

// RevenueService начисляет долю выручки реферерам.
type RevenueService struct {
	store Store
	log   *zap.Logger
}

func NewRevenueService(store Store, log *zap.Logger) *RevenueService {
	return &RevenueService{store: store, log: log}
}

// ShareRevenue начисляет рефереру 10% от суммы. Нулевые и отрицательные
// суммы - тихий no-op, отсутствие реферера - тоже. Ошибки хранилища
// логируются и глотаются: неудача начисления никогда не должна завалить
// транзакцию, которая его вызвала.
func (s *RevenueService) ShareRevenue(ctx context.Context, userID string, amount float64) {
	if amount <= 0 {
		return
	}

	referrerID, err := s.store.FindReferrer(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error("revenue share: referrer lookup failed",
				zap.String("user_id", userID), zap.Error(err))
		}
		return
	}

	shareAmount := amount * ReferralSharePercent
	if err := s.store.RecordRevenueShare(ctx, referrerID, shareAmount, false); err != nil {
		s.log.Error("revenue share: credit failed",
			zap.String("referrer_id", referrerID),
			zap.Float64("amount", shareAmount),
			zap.Error(err))
		return
	}

	monitoring.RevenueSharedTotal.Add(shareAmount)
	s.log.Info("revenue shared",
		zap.String("referrer_id", referrerID),
		zap.Float64("amount", shareAmount))
}

// ShareResult - результат явного запроса /revenue/share.
type ShareResult struct {
	ReferrerID  string  `json:"referrer_id"`
	ShareAmount float64 `json:"share_amount"`
}

// Share - то же начисление, но с ошибкой наружу: endpoint /revenue/share
// сообщает клиенту, что реферера нет.
func (s *RevenueService) Share(ctx context.Context, userID string, amount float64) (*ShareResult, error) {
	referrerID, err := s.store.FindReferrer(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNoReferrer
		}
		return nil, err
	}

	shareAmount := amount * ReferralSharePercent
	if err := s.store.RecordRevenueShare(ctx, referrerID, shareAmount, false); err != nil {
		return nil, err
	}
	monitoring.RevenueSharedTotal.Add(shareAmount)
	return &ShareResult{ReferrerID: referrerID, ShareAmount: shareAmount}, nil
}

// RewardReferrer начисляет рефереру бонус за регистрацию приглашённого
// и увеличивает его счётчик рефералов.
func (s *RevenueService) RewardReferrer(ctx context.Context, userID string) (*ShareResult, error) {
	referrerID, err := s.store.FindReferrer(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNoReferrer
		}
		return nil, err
	}

	if err := s.store.RecordRevenueShare(ctx, referrerID, SignupBonus, true); err != nil {
		return nil, err
	}
	return &ShareResult{ReferrerID: referrerID, ShareAmount: SignupBonus}, nil
}
