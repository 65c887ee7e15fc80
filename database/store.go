package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referral-system/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store - pgx-реализация хранилища. Все многошаговые мутации
// (revenue share, создание вывода, settlement, ревёрт подписки)
// выполняются в одной транзакции.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ==================== USERS ====================

// CreateUser вставляет пользователя вместе с пустой строкой user_stats.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ReferralCode == "" {
		u.ReferralCode = newReferralCode()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        INSERT INTO users (id, email, password_hash, role, referred_by_id, referral_code)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Password, u.Role, u.ReferredByID, u.ReferralCode,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1)`, u.ID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
        SELECT id, email, password_hash, role, referred_by_id, referral_code, created_at, updated_at
        FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.ReferredByID, &u.ReferralCode, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
        SELECT id, email, password_hash, role, referred_by_id, referral_code, created_at, updated_at
        FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.ReferredByID, &u.ReferralCode, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, email, password_hash, role, referred_by_id, referral_code, created_at, updated_at
        FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.ReferredByID,
			&u.ReferralCode, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id, email, role string) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE users SET email = $1, role = $2, updated_at = NOW() WHERE id = $3`,
		email, role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var st models.UserStats
	err := s.pool.QueryRow(ctx, `
        SELECT user_id, earnings, referrals, updated_at FROM user_stats WHERE user_id = $1`,
		userID,
	).Scan(&st.UserID, &st.Earnings, &st.Referrals, &st.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &st, nil
}

// ==================== SUBSCRIPTIONS ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	return s.pool.QueryRow(ctx, `
        INSERT INTO subscriptions (id, user_id, type, price, expires_at, processor_subscription_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`,
		sub.ID, sub.UserID, sub.Type, sub.Price, sub.ExpiresAt, sub.ProcessorSubscriptionID,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
}

func (s *Store) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	return s.scanSubscription(s.pool.QueryRow(ctx, subscriptionSelect+` WHERE id = $1`, id))
}

// GetLatestSubscription - последняя по времени создания подписка пользователя.
func (s *Store) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.scanSubscription(s.pool.QueryRow(ctx,
		subscriptionSelect+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID))
}

// GetActiveSubscription - неистёкшая подписка пользователя, если есть.
func (s *Store) GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.scanSubscription(s.pool.QueryRow(ctx,
		subscriptionSelect+` WHERE user_id = $1 AND expires_at > NOW() ORDER BY created_at DESC LIMIT 1`,
		userID))
}

func (s *Store) UpdateSubscription(ctx context.Context, id, subType string, price float64, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE subscriptions SET type = $1, price = $2, expires_at = $3, updated_at = NOW()
        WHERE id = $4`,
		subType, price, expiresAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CancelSubscription переводит подписку на бесплатный тариф.
func (s *Store) CancelSubscription(ctx context.Context, id string) error {
	return s.UpdateSubscription(ctx, id, models.SubscriptionFree, 0, models.FreeTierExpiry)
}

// UpsertProcessorSubscription обновляет или создаёт подписку по событию
// платёжного процессора.
func (s *Store) UpsertProcessorSubscription(ctx context.Context, userID, processorID, subType string, price float64, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE subscriptions
        SET type = $1, price = $2, expires_at = $3, processor_subscription_id = $4, updated_at = NOW()
        WHERE user_id = $5`,
		subType, price, expiresAt, processorID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	sub := &models.Subscription{
		UserID:                  userID,
		Type:                    subType,
		Price:                   price,
		ExpiresAt:               expiresAt,
		ProcessorSubscriptionID: &processorID,
	}
	return s.CreateSubscription(ctx, sub)
}

func (s *Store) DeleteUserSubscriptions(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, userID)
	return err
}

// ListExpiring - подписки, истекающие в окне [from, to], по которым ещё не
// отправлялось напоминание для текущего периода.
func (s *Store) ListExpiring(ctx context.Context, from, to time.Time) ([]models.ExpiringSubscription, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT s.id, s.user_id, s.type, s.price, s.expires_at, s.processor_subscription_id,
               s.reminded_at, s.created_at, s.updated_at, u.email
        FROM subscriptions s
        JOIN users u ON u.id = s.user_id
        WHERE s.expires_at >= $1 AND s.expires_at <= $2
          AND (s.reminded_at IS NULL OR s.reminded_at < s.expires_at - INTERVAL '7 days')`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.ExpiringSubscription
	for rows.Next() {
		var e models.ExpiringSubscription
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Price, &e.ExpiresAt,
			&e.ProcessorSubscriptionID, &e.RemindedAt, &e.CreatedAt, &e.UpdatedAt, &e.Email); err != nil {
			return nil, err
		}
		subs = append(subs, e)
	}
	return subs, rows.Err()
}

func (s *Store) MarkReminded(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE subscriptions SET reminded_at = $1 WHERE id = $2`, at, id)
	return err
}

// ListExpiredBefore - подписки, истёкшие раньше cutoff (грейс-период прошёл).
func (s *Store) ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Subscription, error) {
	rows, err := s.pool.Query(ctx, subscriptionSelect+` WHERE expires_at < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Price, &sub.ExpiresAt,
			&sub.ProcessorSubscriptionID, &sub.RemindedAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ReplaceWithFree атомарно удаляет истёкшую подписку и создаёт FREE с
// "вечным" сроком для того же пользователя.
func (s *Store) ReplaceWithFree(ctx context.Context, subID, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, subID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO subscriptions (id, user_id, type, price, expires_at)
        VALUES ($1, $2, $3, 0, $4)`,
		uuid.NewString(), userID, models.SubscriptionFree, models.FreeTierExpiry)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const subscriptionSelect = `
        SELECT id, user_id, type, price, expires_at, processor_subscription_id,
               reminded_at, created_at, updated_at
        FROM subscriptions`

func (s *Store) scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Price, &sub.ExpiresAt,
		&sub.ProcessorSubscriptionID, &sub.RemindedAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &sub, nil
}

// ==================== TRANSACTIONS ====================

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return s.pool.QueryRow(ctx, `
        INSERT INTO transactions (id, user_id, amount, type, source)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`,
		t.ID, t.UserID, t.Amount, t.Type, t.Source,
	).Scan(&t.CreatedAt)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.pool.QueryRow(ctx, `
        SELECT id, user_id, amount, type, source, created_at FROM transactions WHERE id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Source, &t.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
        SELECT id, user_id, amount, type, source, created_at
        FROM transactions ORDER BY created_at DESC`)
}

// ListUserTransactions возвращает транзакции пользователя, опционально
// отфильтрованные по типу.
func (s *Store) ListUserTransactions(ctx context.Context, userID, txType string) ([]models.Transaction, error) {
	if txType != "" {
		return s.queryTransactions(ctx, `
            SELECT id, user_id, amount, type, source, created_at
            FROM transactions WHERE user_id = $1 AND type = $2 ORDER BY created_at DESC`,
			userID, txType)
	}
	return s.queryTransactions(ctx, `
        SELECT id, user_id, amount, type, source, created_at
        FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Source, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ==================== REFERRALS ====================

func (s *Store) CreateReferral(ctx context.Context, r *models.Referral) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return s.pool.QueryRow(ctx, `
        INSERT INTO referrals (id, referrer_id, referred_id)
        VALUES ($1, $2, $3)
        RETURNING created_at`,
		r.ID, r.ReferrerID, r.ReferredID,
	).Scan(&r.CreatedAt)
}

func (s *Store) GetReferralByReferred(ctx context.Context, referredID string) (*models.Referral, error) {
	var r models.Referral
	err := s.pool.QueryRow(ctx, `
        SELECT id, referrer_id, referred_id, created_at FROM referrals WHERE referred_id = $1`,
		referredID,
	).Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &r, nil
}

// FindReferrer ищет реферера пользователя. Фильтр referrer_id <> referred_id
// защищает от случайной самоссылки, даже если она попала в хранилище.
func (s *Store) FindReferrer(ctx context.Context, referredID string) (string, error) {
	var referrerID string
	err := s.pool.QueryRow(ctx, `
        SELECT referrer_id FROM referrals
        WHERE referred_id = $1 AND referrer_id <> $1`,
		referredID,
	).Scan(&referrerID)
	if err != nil {
		return "", mapNoRows(err)
	}
	return referrerID, nil
}

func (s *Store) ListUserReferrals(ctx context.Context, referrerID string) ([]models.Referral, error) {
	return s.queryReferrals(ctx, `
        SELECT id, referrer_id, referred_id, created_at
        FROM referrals WHERE referrer_id = $1 ORDER BY created_at DESC`, referrerID)
}

func (s *Store) ListReferrals(ctx context.Context) ([]models.Referral, error) {
	return s.queryReferrals(ctx, `
        SELECT id, referrer_id, referred_id, created_at FROM referrals ORDER BY created_at DESC`)
}

func (s *Store) CountReferrals(ctx context.Context, referrerID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`, referrerID).Scan(&n)
	return n, err
}

func (s *Store) queryReferrals(ctx context.Context, query string, args ...any) ([]models.Referral, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []models.Referral
	for rows.Next() {
		var r models.Referral
		if err := rows.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.CreatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// ==================== LEDGER ====================

// RecordRevenueShare атомарно добавляет REVENUE_SHARE транзакцию рефереру и
// увеличивает его earnings (и, опционально, счётчик рефералов).
func (s *Store) RecordRevenueShare(ctx context.Context, referrerID string, amount float64, bumpReferrals bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO transactions (id, user_id, amount, type)
        VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), referrerID, amount, models.TransactionRevenueShare)
	if err != nil {
		return err
	}

	bump := 0
	if bumpReferrals {
		bump = 1
	}
	tag, err := tx.Exec(ctx, `
        UPDATE user_stats
        SET earnings = earnings + $1, referrals = referrals + $2, updated_at = NOW()
        WHERE user_id = $3`,
		amount, bump, referrerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return tx.Commit(ctx)
}

// CreateWithdrawalRequest атомарно списывает debit с баланса (условный
// UPDATE защищает от овердрафта при конкурентных запросах), создаёт
// PENDING-заявку и, если настроен owner-аккаунт, пишет FEE-транзакцию.
func (s *Store) CreateWithdrawalRequest(ctx context.Context, w *models.Withdrawal, debit, fee float64, ownerID string) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE user_stats
        SET earnings = earnings - $1, updated_at = NOW()
        WHERE user_id = $2 AND earnings >= $1`,
		debit, w.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientBalance
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO withdrawals (id, user_id, amount, method, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`,
		w.ID, w.UserID, w.Amount, w.Method, w.Status,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return err
	}

	if ownerID != "" {
		_, err = tx.Exec(ctx, `
            INSERT INTO transactions (id, user_id, amount, type)
            VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), ownerID, fee, models.TransactionFee)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := s.pool.QueryRow(ctx, `
        SELECT id, user_id, amount, method, status, created_at, updated_at
        FROM withdrawals WHERE id = $1`, id,
	).Scan(&w.ID, &w.UserID, &w.Amount, &w.Method, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &w, nil
}

// SettleWithdrawal переводит PENDING-заявку в терминальный статус; при
// FAILED возвращает refund на баланс владельца в той же транзакции.
func (s *Store) SettleWithdrawal(ctx context.Context, id, status string, refund float64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `
        UPDATE withdrawals SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
        RETURNING user_id`,
		status, id, models.WithdrawalPending,
	).Scan(&userID)
	if err != nil {
		return mapNoRows(err)
	}

	if refund > 0 {
		_, err = tx.Exec(ctx, `
            UPDATE user_stats SET earnings = earnings + $1, updated_at = NOW()
            WHERE user_id = $2`,
			refund, userID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListUserWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, amount, method, status, created_at, updated_at
        FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ws []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Method, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}

// ==================== DASHBOARD ====================

func (s *Store) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}

	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
        SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $1`,
		models.TransactionPurchase).Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM withdrawals`).Scan(&stats.TotalWithdrawals)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawals WHERE status = $1`,
		models.WithdrawalPending).Scan(&stats.PendingWithdrawals)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT type, COUNT(*) FROM subscriptions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tc models.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		stats.SubscriptionCounts = append(stats.SubscriptionCounts, tc)
	}
	return stats, rows.Err()
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func newReferralCode() string {
	return fmt.Sprintf("REF-%s", uuid.NewString()[:8])
}
