package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_CreateVerify(t *testing.T) {
	tok := NewAuthToken([]byte("secret"), time.Hour)

	s, err := tok.CreateToken(&models.User{ID: 42, Role: models.RoleAdmin})
	require.NoError(t, err)

	payload, err := tok.VerifyToken(s)
	require.NoError(t, err)
	assert.Equal(t, &models.TokenPayload{UserID: 42, Role: models.RoleAdmin}, payload)
	assert.True(t, payload.IsAdmin())
}

func TestToken_VerifyInvalid(t *testing.T) {
	tok := NewAuthToken([]byte("secret"), time.Hour)
	valid, err := tok.CreateToken(&models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	expired, err := NewAuthToken([]byte("secret"), -time.Minute).CreateToken(&models.User{ID: 1})
	require.NoError(t, err)

	foreign, err := NewAuthToken([]byte("other"), time.Hour).CreateToken(&models.User{ID: 1})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong_key", token: foreign},
		{name: "alg_none", token: none},
		{name: "tampered", token: valid + "x"},
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tok.VerifyToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, payload)
		})
	}
}
