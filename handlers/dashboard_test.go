package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"referral-system/models"

	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)
	friend := env.seedUser(t, "friend@example.com", models.RoleUser)
	ctx := context.Background()

	env.store.SetEarnings(user.ID, 42.5)
	linkReferral(t, env, user.ID, friend.ID)
	subscribePaid(t, env.store, user.ID)
	require.NoError(t, env.store.CreateWithdrawalRequest(ctx, &models.Withdrawal{
		UserID: user.ID, Amount: 9.8, Method: models.MethodPayPal, Status: models.WithdrawalPending,
	}, 10, 0.2, ""))

	w := env.request(t, http.MethodGet, "/api/dashboard", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.InDelta(t, 32.5, body["balance"].(float64), 1e-9)
	require.InDelta(t, 1, body["referral_count"].(float64), 1e-9)
	require.Len(t, body["withdrawals"].([]any), 1)

	sub := body["subscription"].(map[string]any)
	require.Equal(t, models.SubscriptionPremium, sub["type"])
}

func TestDashboardWithoutSubscription(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodGet, "/api/dashboard", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Zero(t, body["balance"].(float64))
	require.Nil(t, body["subscription"])
}

func TestAdminDashboardAggregates(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	buyer := env.seedUser(t, "buyer@example.com", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, env.store.CreateTransaction(ctx, &models.Transaction{
		UserID: buyer.ID, Amount: 100, Type: models.TransactionPurchase,
	}))
	require.NoError(t, env.store.CreateTransaction(ctx, &models.Transaction{
		UserID: buyer.ID, Amount: 500, Type: models.TransactionDeposit,
	}))
	require.NoError(t, env.store.CreateSubscription(ctx, &models.Subscription{
		UserID: buyer.ID, Type: models.SubscriptionPremium, ExpiresAt: time.Now().Add(time.Hour),
	}))
	env.store.SetEarnings(buyer.ID, 100)
	require.NoError(t, env.store.CreateWithdrawalRequest(ctx, &models.Withdrawal{
		UserID: buyer.ID, Amount: 49, Method: models.MethodCrypto, Status: models.WithdrawalPending,
	}, 50, 1, ""))

	w := env.request(t, http.MethodGet, "/api/admin/dashboard", env.token(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.InDelta(t, 2, body["total_users"].(float64), 1e-9)
	// только PURCHASE входит в выручку
	require.InDelta(t, 100, body["total_revenue"].(float64), 1e-9)
	require.InDelta(t, 49, body["total_withdrawals"].(float64), 1e-9)
	require.InDelta(t, 1, body["pending_withdrawals"].(float64), 1e-9)
	require.Len(t, body["subscription_counts"].([]any), 1)
}
