package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"novacart/pkg/domain/model"
)

// TokenManager issues and verifies HS256 session tokens whose subject is the user id.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *TokenManager) Issue(userID uuid.UUID) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return token, errors.Wrap(err, "sign token")
}

// Verify reports every decoding, signature and expiry failure as an AuthInvalid error.
func (m *TokenManager) Verify(token string) (model.Identity, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return model.Identity{}, model.NewAuthError(model.AuthInvalid, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, model.NewAuthError(model.AuthInvalid, errors.Wrap(err, "token subject"))
	}
	return model.Identity{UserID: userID}, nil
}
