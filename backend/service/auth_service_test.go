package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/db"
	"formbox/backend/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	user := createTestUser(t)

	tokenString, err := GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, user.Id, claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.Role, claims.Role)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	user := createTestUser(t)

	// A refresh token must never pass as an access token: different secret.
	refreshToken, err := GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = ValidateToken(refreshToken)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	user := createTestUser(t)
	now := time.Now()
	claims := &Claims{
		UserID:   user.Id,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(common.JWTSecret))
	require.NoError(t, err)

	_, err = ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestRefreshTokens(t *testing.T) {
	user := createTestUser(t)

	refreshToken, err := GenerateRefreshToken(user)
	require.NoError(t, err)

	accessToken, newRefreshToken, err := RefreshTokens(refreshToken, "en")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, newRefreshToken)

	claims, err := ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Id, claims.UserID)

	_, err = ValidateRefreshToken(newRefreshToken)
	assert.NoError(t, err)
}

func TestRefreshTokens_DisabledUser(t *testing.T) {
	user := createTestUser(t)
	refreshToken, err := GenerateRefreshToken(user)
	require.NoError(t, err)

	require.NoError(t, db.DB.Model(&model.User{}).
		Where("id = ?", user.Id).
		Update("status", common.UserStatusDisabled).Error)

	_, _, err = RefreshTokens(refreshToken, "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrUserDisabled))
}

func TestRefreshTokens_GarbageToken(t *testing.T) {
	_, _, err := RefreshTokens("not-a-token", "en")
	require.Error(t, err)
	assert.True(t, i18n.IsErrorCode(err, fberrors.ErrUnauthenticated))
}
