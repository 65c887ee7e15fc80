package auth

import (
	"context"
	"errors"

	"referral-system/models"
)

// Store - часть хранилища, нужная резолверу.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// ResolveUser находит локального пользователя по subject id провайдера.
// Если его ещё нет - создаёт с ролью USER (create-on-first-use); пароль
// не хранится, поле занимает заглушка.
func ResolveUser(ctx context.Context, store Store, claims *Claims) (*models.User, error) {
	user, err := store.GetUserByID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	role := claims.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	user = &models.User{
		ID:       claims.Subject,
		Email:    claims.Email,
		Password: "external_identity",
		Role:     role,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
