// Package testutil содержит in-memory реализацию хранилища для тестов.
// Семантика повторяет Postgres-реализацию: те же sentinel-ошибки, то же
// условное списание баланса, тот же предикат дедупликации напоминаний.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"referral-system/models"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu sync.Mutex

	Users         map[string]*models.User
	Stats         map[string]*models.UserStats
	Subscriptions map[string]*models.Subscription
	Transactions  map[string]*models.Transaction
	Referrals     map[string]*models.Referral
	Withdrawals   map[string]*models.Withdrawal

	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Users:         make(map[string]*models.User),
		Stats:         make(map[string]*models.UserStats),
		Subscriptions: make(map[string]*models.Subscription),
		Transactions:  make(map[string]*models.Transaction),
		Referrals:     make(map[string]*models.Referral),
		Withdrawals:   make(map[string]*models.Withdrawal),
	}
}

// nextTime выдаёт монотонно растущие created_at, чтобы ORDER BY был
// детерминированным даже внутри одного теста.
func (m *MemoryStore) nextTime() time.Time {
	m.seq++
	return time.Now().Add(time.Duration(m.seq) * time.Microsecond)
}

// ==================== USERS ====================

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ReferralCode == "" {
		u.ReferralCode = fmt.Sprintf("REF-%s", uuid.NewString()[:8])
	}
	now := m.nextTime()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.Users[u.ID] = &cp
	m.Stats[u.ID] = &models.UserStats{UserID: u.ID, UpdatedAt: now}
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var users []models.User
	for _, u := range m.Users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, id, email, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Email = email
	u.Role = role
	u.UpdatedAt = m.nextTime()
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Users, id)
	delete(m.Stats, id)
	return nil
}

func (m *MemoryStore) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.Stats[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

// SetEarnings выставляет баланс напрямую, минуя леджер. Только для тестов.
func (m *MemoryStore) SetEarnings(userID string, earnings float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.Stats[userID]
	if !ok {
		st = &models.UserStats{UserID: userID}
		m.Stats[userID] = st
	}
	st.Earnings = earnings
}

// ==================== SUBSCRIPTIONS ====================

func (m *MemoryStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSubscriptionLocked(sub)
}

func (m *MemoryStore) createSubscriptionLocked(sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := m.nextTime()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	cp := *sub
	m.Subscriptions[sub.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.Subscriptions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *MemoryStore) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestLocked(userID, func(*models.Subscription) bool { return true })
}

func (m *MemoryStore) GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	return m.latestLocked(userID, func(s *models.Subscription) bool { return s.ExpiresAt.After(now) })
}

func (m *MemoryStore) latestLocked(userID string, keep func(*models.Subscription) bool) (*models.Subscription, error) {
	var latest *models.Subscription
	for _, s := range m.Subscriptions {
		if s.UserID != userID || !keep(s) {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MemoryStore) UpdateSubscription(ctx context.Context, id, subType string, price float64, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.Subscriptions[id]
	if !ok {
		return models.ErrNotFound
	}
	sub.Type = subType
	sub.Price = price
	sub.ExpiresAt = expiresAt
	sub.UpdatedAt = m.nextTime()
	return nil
}

func (m *MemoryStore) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Subscriptions[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Subscriptions, id)
	return nil
}

func (m *MemoryStore) CancelSubscription(ctx context.Context, id string) error {
	return m.UpdateSubscription(ctx, id, models.SubscriptionFree, 0, models.FreeTierExpiry)
}

func (m *MemoryStore) UpsertProcessorSubscription(ctx context.Context, userID, processorID, subType string, price float64, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.Subscriptions {
		if s.UserID == userID {
			s.Type = subType
			s.Price = price
			s.ExpiresAt = expiresAt
			s.ProcessorSubscriptionID = &processorID
			s.UpdatedAt = m.nextTime()
			return nil
		}
	}
	sub := &models.Subscription{
		UserID:                  userID,
		Type:                    subType,
		Price:                   price,
		ExpiresAt:               expiresAt,
		ProcessorSubscriptionID: &processorID,
	}
	return m.createSubscriptionLocked(sub)
}

func (m *MemoryStore) DeleteUserSubscriptions(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.Subscriptions {
		if s.UserID == userID {
			delete(m.Subscriptions, id)
		}
	}
	return nil
}

func (m *MemoryStore) ListExpiring(ctx context.Context, from, to time.Time) ([]models.ExpiringSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.ExpiringSubscription
	for _, s := range m.Subscriptions {
		if s.ExpiresAt.Before(from) || s.ExpiresAt.After(to) {
			continue
		}
		if s.RemindedAt != nil && !s.RemindedAt.Before(s.ExpiresAt.Add(-7*24*time.Hour)) {
			continue
		}
		email := ""
		if u, ok := m.Users[s.UserID]; ok {
			email = u.Email
		}
		out = append(out, models.ExpiringSubscription{Subscription: *s, Email: email})
	}
	return out, nil
}

func (m *MemoryStore) MarkReminded(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.Subscriptions[id]; ok {
		t := at
		sub.RemindedAt = &t
	}
	return nil
}

func (m *MemoryStore) ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Subscription
	for _, s := range m.Subscriptions {
		if s.ExpiresAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MemoryStore) ReplaceWithFree(ctx context.Context, subID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Subscriptions, subID)
	return m.createSubscriptionLocked(&models.Subscription{
		UserID:    userID,
		Type:      models.SubscriptionFree,
		ExpiresAt: models.FreeTierExpiry,
	})
}

// ==================== TRANSACTIONS ====================

func (m *MemoryStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = m.nextTime()
	cp := *t
	m.Transactions[t.ID] = &cp
	return nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Transactions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterTransactionsLocked(func(*models.Transaction) bool { return true }), nil
}

func (m *MemoryStore) ListUserTransactions(ctx context.Context, userID, txType string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterTransactionsLocked(func(t *models.Transaction) bool {
		return t.UserID == userID && (txType == "" || t.Type == txType)
	}), nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Transactions[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Transactions, id)
	return nil
}

func (m *MemoryStore) filterTransactionsLocked(keep func(*models.Transaction) bool) []models.Transaction {
	var txs []models.Transaction
	for _, t := range m.Transactions {
		if keep(t) {
			txs = append(txs, *t)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs
}

// ==================== REFERRALS ====================

func (m *MemoryStore) CreateReferral(ctx context.Context, r *models.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = m.nextTime()
	cp := *r
	m.Referrals[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetReferralByReferred(ctx context.Context, referredID string) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.Referrals {
		if r.ReferredID == referredID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemoryStore) FindReferrer(ctx context.Context, referredID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.Referrals {
		if r.ReferredID == referredID && r.ReferrerID != referredID {
			return r.ReferrerID, nil
		}
	}
	return "", models.ErrNotFound
}

func (m *MemoryStore) ListUserReferrals(ctx context.Context, referrerID string) ([]models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterReferralsLocked(func(r *models.Referral) bool { return r.ReferrerID == referrerID }), nil
}

func (m *MemoryStore) ListReferrals(ctx context.Context) ([]models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterReferralsLocked(func(*models.Referral) bool { return true }), nil
}

func (m *MemoryStore) CountReferrals(ctx context.Context, referrerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.Referrals {
		if r.ReferrerID == referrerID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) filterReferralsLocked(keep func(*models.Referral) bool) []models.Referral {
	var refs []models.Referral
	for _, r := range m.Referrals {
		if keep(r) {
			refs = append(refs, *r)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].CreatedAt.After(refs[j].CreatedAt) })
	return refs
}

// ==================== LEDGER ====================

func (m *MemoryStore) RecordRevenueShare(ctx context.Context, referrerID string, amount float64, bumpReferrals bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.Stats[referrerID]
	if !ok {
		return models.ErrNotFound
	}

	t := &models.Transaction{
		ID:        uuid.NewString(),
		UserID:    referrerID,
		Amount:    amount,
		Type:      models.TransactionRevenueShare,
		CreatedAt: m.nextTime(),
	}
	m.Transactions[t.ID] = t

	st.Earnings += amount
	if bumpReferrals {
		st.Referrals++
	}
	st.UpdatedAt = m.nextTime()
	return nil
}

func (m *MemoryStore) CreateWithdrawalRequest(ctx context.Context, w *models.Withdrawal, debit, fee float64, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.Stats[w.UserID]
	if !ok || st.Earnings < debit {
		return models.ErrInsufficientBalance
	}
	st.Earnings -= debit
	st.UpdatedAt = m.nextTime()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := m.nextTime()
	w.CreatedAt = now
	w.UpdatedAt = now
	cp := *w
	m.Withdrawals[w.ID] = &cp

	if ownerID != "" {
		t := &models.Transaction{
			ID:        uuid.NewString(),
			UserID:    ownerID,
			Amount:    fee,
			Type:      models.TransactionFee,
			CreatedAt: m.nextTime(),
		}
		m.Transactions[t.ID] = t
	}
	return nil
}

func (m *MemoryStore) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.Withdrawals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MemoryStore) SettleWithdrawal(ctx context.Context, id, status string, refund float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.Withdrawals[id]
	if !ok || w.Status != models.WithdrawalPending {
		return models.ErrNotFound
	}
	w.Status = status
	w.UpdatedAt = m.nextTime()

	if refund > 0 {
		if st, ok := m.Stats[w.UserID]; ok {
			st.Earnings += refund
			st.UpdatedAt = m.nextTime()
		}
	}
	return nil
}

func (m *MemoryStore) ListUserWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ws []models.Withdrawal
	for _, w := range m.Withdrawals {
		if w.UserID == userID {
			ws = append(ws, *w)
		}
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].CreatedAt.After(ws[j].CreatedAt) })
	return ws, nil
}

// ==================== DASHBOARD ====================

func (m *MemoryStore) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.AdminStats{TotalUsers: int64(len(m.Users))}
	for _, t := range m.Transactions {
		if t.Type == models.TransactionPurchase {
			stats.TotalRevenue += t.Amount
		}
	}
	for _, w := range m.Withdrawals {
		stats.TotalWithdrawals += w.Amount
		if w.Status == models.WithdrawalPending {
			stats.PendingWithdrawals++
		}
	}
	counts := make(map[string]int64)
	for _, s := range m.Subscriptions {
		counts[s.Type]++
	}
	for subType, n := range counts {
		stats.SubscriptionCounts = append(stats.SubscriptionCounts, models.TypeCount{Type: subType, Count: n})
	}
	sort.Slice(stats.SubscriptionCounts, func(i, j int) bool {
		return stats.SubscriptionCounts[i].Type < stats.SubscriptionCounts[j].Type
	})
	return stats, nil
}
