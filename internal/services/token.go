package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

// TokenService mints and verifies the bearer credentials used by all write
// operations. Verification yields only a user id; loading the user row is the
// middleware's job.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

type tokenClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Mint issues a signed access token for the user.
func (s *TokenService) Mint(user *models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(apperrors.KindInternal, "sign token", err)
	}
	return signed, expiresAt, nil
}

// Verify validates the credential and returns the user id it was issued for.
func (s *TokenService) Verify(credential string) (uint, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.Wrap(apperrors.KindUnauthenticated, "invalid or expired token", err)
	}
	if claims.UserID == 0 {
		return 0, apperrors.Unauthenticated("token carries no user id")
	}
	return claims.UserID, nil
}
