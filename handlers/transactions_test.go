package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"referral-system/models"

	"github.com/stretchr/testify/require"
)

func linkReferral(t *testing.T, env *testEnv, referrerID, referredID string) {
	t.Helper()
	require.NoError(t, env.store.CreateReferral(context.Background(), &models.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
	}))
}

func TestDepositTriggersRevenueShare(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.seedUser(t, "referrer@example.com", models.RoleUser)
	referred := env.seedUser(t, "referred@example.com", models.RoleUser)
	linkReferral(t, env, referrer.ID, referred.ID)

	w := env.request(t, http.MethodPost, "/api/transactions", env.token(t, referred), map[string]any{
		"user_id": referred.ID,
		"amount":  200,
		"type":    models.TransactionDeposit,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	stats, err := env.store.GetUserStats(context.Background(), referrer.ID)
	require.NoError(t, err)
	require.InDelta(t, 20.0, stats.Earnings, 1e-9)
}

func TestPurchaseTransactionDoesNotShare(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.seedUser(t, "referrer@example.com", models.RoleUser)
	referred := env.seedUser(t, "referred@example.com", models.RoleUser)
	linkReferral(t, env, referrer.ID, referred.ID)

	// PURCHASE через /transactions долю не начисляет, только /purchase
	w := env.request(t, http.MethodPost, "/api/transactions", env.token(t, referred), map[string]any{
		"user_id": referred.ID,
		"amount":  200,
		"type":    models.TransactionPurchase,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	stats, err := env.store.GetUserStats(context.Background(), referrer.ID)
	require.NoError(t, err)
	require.Zero(t, stats.Earnings)
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/transactions", env.token(t, user), map[string]any{
		"user_id": user.ID, "amount": 100, "type": "GIFT",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid transaction type", decodeBody(t, w)["error"])

	w = env.request(t, http.MethodPost, "/api/transactions", env.token(t, user), map[string]any{
		"user_id": user.ID, "amount": -5, "type": models.TransactionDeposit,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "amount must be greater than zero", decodeBody(t, w)["error"])
}

func TestListUserTransactionsFilter(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)
	ctx := context.Background()

	for _, txType := range []string{models.TransactionDeposit, models.TransactionPurchase, models.TransactionDeposit} {
		require.NoError(t, env.store.CreateTransaction(ctx, &models.Transaction{
			UserID: user.ID, Amount: 10, Type: txType,
		}))
	}

	w := env.request(t, http.MethodGet, "/api/transactions/user/"+user.ID+"?type=DEPOSIT", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 2)

	// неизвестный фильтр игнорируется, вернутся все
	w = env.request(t, http.MethodGet, "/api/transactions/user/"+user.ID+"?type=BOGUS", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 3)
}

func TestPurchaseEndpointSharesRevenue(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.seedUser(t, "referrer@example.com", models.RoleUser)
	buyer := env.seedUser(t, "buyer@example.com", models.RoleUser)
	linkReferral(t, env, referrer.ID, buyer.ID)

	w := env.request(t, http.MethodPost, "/api/purchase", env.token(t, buyer), map[string]any{
		"subscription_type": models.SubscriptionPremium,
		"amount":            50,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// записана PURCHASE-транзакция покупателя
	txs, err := env.store.ListUserTransactions(context.Background(), buyer.ID, models.TransactionPurchase)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.InDelta(t, 50.0, txs[0].Amount, 1e-9)

	// реферер получил 10%
	stats, err := env.store.GetUserStats(context.Background(), referrer.ID)
	require.NoError(t, err)
	require.InDelta(t, 5.0, stats.Earnings, 1e-9)
}

func TestPurchaseEndpointValidation(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.seedUser(t, "buyer@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/purchase", env.token(t, buyer), map[string]any{
		"subscription_type": "GOLD", "amount": 50,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/purchase", env.token(t, buyer), map[string]any{
		"subscription_type": models.SubscriptionPremium, "amount": 0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseWithoutReferrerStillRecorded(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.seedUser(t, "buyer@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/purchase", env.token(t, buyer), map[string]any{
		"subscription_type": models.SubscriptionBusiness,
		"amount":            100,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	txs, err := env.store.ListUserTransactions(context.Background(), buyer.ID, "")
	require.NoError(t, err)
	require.Len(t, txs, 1)
}
