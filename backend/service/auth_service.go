package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"formbox/backend/common"
	fberrors "formbox/backend/common/errors"
	"formbox/backend/common/i18n"
	"formbox/backend/library/db"
	"formbox/backend/model"
)

const TokenIssuer = "formbox"

const (
	accessTokenLifetime  = time.Hour
	refreshTokenLifetime = 7 * 24 * time.Hour
)

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     int    `json:"role"`
	jwt.RegisteredClaims
}

func generateTokenWith(user *model.User, secret string, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.Id,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func validateTokenWith(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func GenerateToken(user *model.User) (string, error) {
	return generateTokenWith(user, common.JWTSecret, accessTokenLifetime)
}

func ValidateToken(tokenString string) (*Claims, error) {
	return validateTokenWith(tokenString, common.JWTSecret)
}

func GenerateRefreshToken(user *model.User) (string, error) {
	return generateTokenWith(user, common.JWTRefreshSecret, refreshTokenLifetime)
}

func ValidateRefreshToken(tokenString string) (*Claims, error) {
	return validateTokenWith(tokenString, common.JWTRefreshSecret)
}

// RefreshTokens exchanges a valid refresh token for a fresh access/refresh
// pair, re-reading the user so a disabled account cannot keep refreshing.
func RefreshTokens(refreshToken string, lang string) (string, string, error) {
	claims, err := ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", "", i18n.Wrap(err, fberrors.ErrUnauthenticated, lang)
	}
	var user model.User
	if err := db.DB.First(&user, claims.UserID).Error; err != nil {
		return "", "", i18n.Wrap(err, fberrors.ErrUserNotFound, lang)
	}
	if user.Status != common.UserStatusEnabled {
		return "", "", i18n.New(fberrors.ErrUserDisabled, lang)
	}
	accessToken, err := GenerateToken(&user)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err := GenerateRefreshToken(&user)
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}
