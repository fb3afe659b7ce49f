package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rookgm/fmmall/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	UserID uint64      `json:"uid"`
	Role   models.Role `json:"role"`
}

// Token issues and verifies HMAC signed JWT
type Token struct {
	key []byte
	ttl time.Duration
}

// NewAuthToken creates new Token instance
func NewAuthToken(key []byte, ttl time.Duration) *Token {
	return &Token{
		key: key,
		ttl: ttl,
	}
}

// CreateToken creates signed token for user
func (t *Token) CreateToken(user *models.User) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: user.ID,
		Role:   user.Role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.key)
}

// VerifyToken checks token signature and expiration and returns its payload
func (t *Token) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &models.TokenPayload{
		UserID: c.UserID,
		Role:   c.Role,
	}, nil
}
