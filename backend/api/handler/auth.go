package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"formbox/backend/common"
	"formbox/backend/common/i18n"
	"formbox/backend/service"
)

type loginPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerPayload struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=6,max=72"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email" binding:"omitempty,email"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func Login(c *gin.Context) {
	lang := c.GetString("lang")
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return
	}

	user, err := service.AuthenticateUser(payload.Username, payload.Password, lang)
	if err != nil {
		common.RespError(c, http.StatusUnauthorized, "login failed", err)
		return
	}

	session := sessions.Default(c)
	session.Set("id", user.Id)
	session.Set("username", user.Username)
	session.Set("role", user.Role)
	session.Set("status", user.Status)
	if err := session.Save(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to save session", err)
		return
	}

	accessToken, err := service.GenerateToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to generate token", err)
		return
	}
	refreshToken, err := service.GenerateRefreshToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to generate refresh token", err)
		return
	}

	common.RespSuccess(c, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func Register(c *gin.Context) {
	lang := c.GetString("lang")
	var payload registerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return
	}

	user, err := service.RegisterUser(payload.Username, payload.Password, payload.DisplayName, payload.Email, lang)
	if err != nil {
		common.RespError(c, http.StatusBadRequest, "registration failed", err)
		return
	}
	common.RespSuccess(c, user)
}

func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to clear session", err)
		return
	}

	// Revoke the bearer token too, when one was presented.
	if common.RedisEnabled {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := service.ValidateToken(parts[1]); err == nil {
				ttl := time.Until(claims.ExpiresAt.Time)
				if ttl > 0 {
					if err := common.RedisSet("jwt:blacklist:"+parts[1], "1", ttl); err != nil {
						common.SysError("failed to blacklist token: " + err.Error())
					}
				}
			}
		}
	}

	common.RespSuccessStr(c, "logged out")
}

func RefreshToken(c *gin.Context) {
	lang := c.GetString("lang")
	var payload refreshPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, i18n.Translate("invalid_param", lang), err)
		return
	}

	accessToken, refreshToken, err := service.RefreshTokens(payload.RefreshToken, lang)
	if err != nil {
		common.RespError(c, http.StatusUnauthorized, "refresh failed", err)
		return
	}
	common.RespSuccess(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func GetSelf(c *gin.Context) {
	lang := c.GetString("lang")
	user, err := service.GetUserById(c.GetInt64("user_id"), lang)
	if err != nil {
		common.RespError(c, http.StatusNotFound, "user not found", err)
		return
	}
	common.RespSuccess(c, user)
}
