package jobs

import (
	"context"
	"fmt"
	"time"

	"referral-system/models"

	"go.uber.org/zap"
)

const (
	// ReminderWindow - за сколько до истечения подписки шлём напоминание.
	ReminderWindow = 7 * 24 * time.Hour

	// GracePeriod - сколько истёкшая подписка ещё живёт до ревёрта на FREE.
	GracePeriod = 3 * 24 * time.Hour
)

// Store - часть хранилища, нужная свиперу.
type Store interface {
	ListExpiring(ctx context.Context, from, to time.Time) ([]models.ExpiringSubscription, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
	ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Subscription, error)
	ReplaceWithFree(ctx context.Context, subID, userID string) error
}

// Mailer отправляет письмо. Ошибки отправки логируются, ретраев нет.
type Mailer interface {
	Send(to, subject, body string) error
}

// Sweeper - периодическая чистка подписок: напоминания об истечении и
// ревёрт на FREE после грейс-периода. Ошибки только логируются, следующий
// тик продолжает работу.
type Sweeper struct {
	store  Store
	mailer Mailer
	log    *zap.Logger
	now    func() time.Time
}

func NewSweeper(store Store, mailer Mailer, log *zap.Logger) *Sweeper {
	return &Sweeper{store: store, mailer: mailer, log: log, now: time.Now}
}

// Run выполняет оба прохода один раз.
func (s *Sweeper) Run(ctx context.Context) {
	now := s.now()
	s.remindExpiring(ctx, now)
	s.revertExpired(ctx, now)
}

// remindExpiring шлёт по одному напоминанию на подписку, истекающую в
// ближайшие 7 дней. reminded_at не даёт слать повторно на каждом тике.
func (s *Sweeper) remindExpiring(ctx context.Context, now time.Time) {
	subs, err := s.store.ListExpiring(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		s.log.Error("sweep: expiring lookup failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		body := fmt.Sprintf(
			"Здравствуйте, %s! Ваша подписка истекает %s. Продлите её, чтобы не потерять доступ.",
			sub.Email, sub.ExpiresAt.Format("02.01.2006"))
		if err := s.mailer.Send(sub.Email, "Ваша подписка скоро истекает", body); err != nil {
			s.log.Warn("sweep: reminder send failed",
				zap.String("email", sub.Email), zap.Error(err))
			continue
		}
		if err := s.store.MarkReminded(ctx, sub.ID, now); err != nil {
			s.log.Error("sweep: mark reminded failed",
				zap.String("subscription_id", sub.ID), zap.Error(err))
		}
	}
}

// revertExpired удаляет подписки, истёкшие больше грейс-периода назад, и
// создаёт взамен FREE с "вечным" сроком. Повторный запуск безопасен:
// замена под предикат уже не попадает.
func (s *Sweeper) revertExpired(ctx context.Context, now time.Time) {
	subs, err := s.store.ListExpiredBefore(ctx, now.Add(-GracePeriod))
	if err != nil {
		s.log.Error("sweep: expired lookup failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		if err := s.store.ReplaceWithFree(ctx, sub.ID, sub.UserID); err != nil {
			s.log.Error("sweep: revert to free failed",
				zap.String("subscription_id", sub.ID),
				zap.String("user_id", sub.UserID),
				zap.Error(err))
			continue
		}
		s.log.Info("subscription reverted to free",
			zap.String("user_id", sub.UserID),
			zap.String("type", sub.Type))
	}
}
