package handlers_test

import (
	"net/http"
	"testing"

	"referral-system/models"

	"github.com/stretchr/testify/require"
)

func TestCreateUserAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/users", env.token(t, user), map[string]any{
		"email": "new@example.com",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateUserAssignsReferralCode(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin)

	w := env.request(t, http.MethodPost, "/api/users", env.token(t, admin), map[string]any{
		"email":    "new@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "new@example.com", body["email"])
	require.Equal(t, models.RoleUser, body["role"])
	require.Contains(t, body["referral_code"].(string), "REF-")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	env.seedUser(t, "taken@example.com", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/users", env.token(t, admin), map[string]any{
		"email": "taken@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "user already exists", decodeBody(t, w)["error"])
}

func TestGetUserWithRelations(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.seedUser(t, "referrer@example.com", models.RoleUser)
	referred := env.seedUser(t, "referred@example.com", models.RoleUser)
	linkReferral(t, env, referrer.ID, referred.ID)
	subscribePaid(t, env.store, referred.ID)

	w := env.request(t, http.MethodGet, "/api/users/"+referred.ID, env.token(t, referred), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, referred.ID, body["user"].(map[string]any)["id"])
	require.NotNil(t, body["stats"])
	require.NotNil(t, body["subscription"])
	received := body["referral_received"].(map[string]any)
	require.Equal(t, referrer.ID, received["referrer_id"])
}

func TestUpdateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodPut, "/api/users/"+user.ID, env.token(t, admin), map[string]any{
		"email": "user@example.com",
		"role":  "SUPERUSER",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPut, "/api/users/"+user.ID, env.token(t, admin), map[string]any{
		"email": "renamed@example.com",
		"role":  models.RoleAdmin,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	user := env.seedUser(t, "user@example.com", models.RoleUser)

	w := env.request(t, http.MethodDelete, "/api/users/"+user.ID, env.token(t, admin), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodDelete, "/api/users/"+user.ID, env.token(t, admin), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
