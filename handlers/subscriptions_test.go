package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"referral-system/models"

	"github.com/stretchr/testify/require"
)

func TestCreateFreeSubscriptionGetsSentinelExpiry(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	// переданный expires_at для FREE игнорируется
	w := env.request(t, http.MethodPost, "/api/subscriptions", env.token(t, user), map[string]any{
		"user_id":    user.ID,
		"type":       models.SubscriptionFree,
		"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	expiresAt, err := time.Parse(time.RFC3339, body["expires_at"].(string))
	require.NoError(t, err)
	require.True(t, expiresAt.Equal(models.FreeTierExpiry))
}

func TestCreatePaidSubscriptionRequiresExpiry(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/subscriptions", env.token(t, user), map[string]any{
		"user_id": user.ID,
		"type":    models.SubscriptionPremium,
		"price":   29.99,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "expires_at required for paid subscriptions", decodeBody(t, w)["error"])
}

func TestCreateSubscriptionRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/subscriptions", env.token(t, user), map[string]any{
		"user_id": user.ID,
		"type":    "PLATINUM",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid subscription type", decodeBody(t, w)["error"])
}

func TestCancelSubscriptionDowngradesToFree(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/subscriptions", env.token(t, user), map[string]any{
		"user_id":    user.ID,
		"type":       models.SubscriptionBusiness,
		"price":      99.99,
		"expires_at": time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	subID := decodeBody(t, w)["id"].(string)

	w = env.request(t, http.MethodPut, "/api/subscriptions/"+subID+"/cancel", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)

	sub := decodeBody(t, w)["subscription"].(map[string]any)
	require.Equal(t, models.SubscriptionFree, sub["type"])
	require.Zero(t, sub["price"].(float64))
}

func TestSubscriptionNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodGet, "/api/subscriptions/missing", env.token(t, user), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodDelete, "/api/subscriptions/missing", env.token(t, user), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
