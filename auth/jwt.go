package auth

import (
	"errors"

	"referral-system/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims - проверенные утверждения провайдера идентификации. Ядро
// потребляет только subject, email и опциональную роль.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

// ValidateToken разбирает bearer-токен. Подпись проверяется общим ключом
// провайдера; других проверок ядро не делает.
func ValidateToken(cfg *config.Config, tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.TokenAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.TokenAudience))
	}
	if cfg.TokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.TokenIssuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.TokenSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
