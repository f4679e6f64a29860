package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload: registered claims (iat, exp, jti, sub) plus
// the user's id and email.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
}

// TTL is the lifetime the token was issued with.
func (c *Claims) TTL() time.Duration {
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(c.IssuedAt.Time)
}

// TokenManager signs and verifies HS256 session tokens with one secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret []byte) *TokenManager {
	return &TokenManager{secret: secret, now: time.Now}
}

// Issue signs a token for the user valid for ttl. The returned time is the
// encoded expiry, truncated to whole seconds.
func (m *TokenManager) Issue(userID int64, email string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
		UserID: userID,
		Email:  email,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt.Time, nil
}

// Verify checks the signature and expiry of tokenString. A token is valid
// strictly before its exp instant. Failures are reported as
// common.ErrTokenExpired or common.ErrInvalidToken only.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
