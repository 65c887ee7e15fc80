package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"referral-system/models"

	"github.com/stretchr/testify/require"
)

func TestProcessorEventRequiresKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/payments/events", "", map[string]any{
		"type": "subscription.created",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodPost, "/api/payments/events", "wrong-key", map[string]any{
		"type": "subscription.created",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProcessorEventCreatesSubscription(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)
	periodEnd := time.Now().Add(30 * 24 * time.Hour)

	w := env.request(t, http.MethodPost, "/api/payments/events", env.cfg.WebhookKey, map[string]any{
		"type":               "subscription.created",
		"user_id":            user.ID,
		"subscription_id":    "proc_sub_1",
		"price_id":           "price_premium",
		"price":              29.99,
		"current_period_end": periodEnd.Unix(),
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["received"])

	sub, err := env.store.GetLatestSubscription(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionPremium, sub.Type)
	require.InDelta(t, 29.99, sub.Price, 1e-9)
	require.NotNil(t, sub.ProcessorSubscriptionID)
	require.Equal(t, "proc_sub_1", *sub.ProcessorSubscriptionID)
	require.Equal(t, periodEnd.Unix(), sub.ExpiresAt.Unix())
}

func TestProcessorEventUpdatesExistingSubscription(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)
	require.NoError(t, env.store.CreateSubscription(context.Background(), &models.Subscription{
		UserID:    user.ID,
		Type:      models.SubscriptionPremium,
		Price:     29.99,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	w := env.request(t, http.MethodPost, "/api/payments/events", env.cfg.WebhookKey, map[string]any{
		"type":               "subscription.updated",
		"user_id":            user.ID,
		"subscription_id":    "proc_sub_2",
		"price_id":           "price_business",
		"price":              99.99,
		"current_period_end": time.Now().Add(60 * 24 * time.Hour).Unix(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	// апгрейд in-place, вторая подписка не создаётся
	sub, err := env.store.GetLatestSubscription(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionBusiness, sub.Type)
	require.Len(t, env.store.Subscriptions, 1)
}

func TestProcessorEventUnknownPriceID(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/payments/events", env.cfg.WebhookKey, map[string]any{
		"type":               "subscription.created",
		"user_id":            user.ID,
		"subscription_id":    "proc_sub_3",
		"price_id":           "price_unknown",
		"current_period_end": time.Now().Unix(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unknown price id", decodeBody(t, w)["error"])
	require.Empty(t, env.store.Subscriptions)
}

func TestProcessorEventDeletesSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)
	require.NoError(t, env.store.CreateSubscription(context.Background(), &models.Subscription{
		UserID:    user.ID,
		Type:      models.SubscriptionPremium,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	w := env.request(t, http.MethodPost, "/api/payments/events", env.cfg.WebhookKey, map[string]any{
		"type":    "subscription.deleted",
		"user_id": user.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, env.store.Subscriptions)
}

func TestProcessorEventUnknownTypeAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/payments/events", env.cfg.WebhookKey, map[string]any{
		"type": "invoice.finalized",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["received"])
}
