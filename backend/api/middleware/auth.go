package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"formbox/backend/common"
	"formbox/backend/service"
)

func authHelper(c *gin.Context, minRole int) {
	session := sessions.Default(c)
	id := session.Get("id")
	username := session.Get("username")
	role := session.Get("role")
	status := session.Get("status")

	if username == nil {
		// No session, fall back to a Bearer token.
		claims, ok := claimsFromHeader(c)
		if !ok {
			return
		}
		user, err := service.GetUserById(claims.UserID, c.GetString("lang"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid token",
			})
			c.Abort()
			return
		}
		id = user.Id
		username = user.Username
		role = user.Role
		status = user.Status
	}

	if status.(int) == common.UserStatusDisabled {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "user has been disabled",
		})
		c.Abort()
		return
	}
	if role.(int) < minRole {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "insufficient privileges",
		})
		c.Abort()
		return
	}
	c.Set("user_id", id.(int64))
	c.Set("username", username)
	c.Set("role", role)
	c.Next()
}

func claimsFromHeader(c *gin.Context) (*service.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "not logged in",
		})
		c.Abort()
		return nil, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Authorization header format must be Bearer {token}",
		})
		c.Abort()
		return nil, false
	}
	tokenString := parts[1]
	claims, err := service.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": err.Error(),
		})
		c.Abort()
		return nil, false
	}
	// A logged-out token stays revoked until it expires.
	if common.RedisEnabled {
		blacklisted, _ := common.RDB.Exists(c, "jwt:blacklist:"+tokenString).Result()
		if blacklisted > 0 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "token has been revoked",
			})
			c.Abort()
			return nil, false
		}
	}
	return claims, true
}

func UserAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHelper(c, common.RoleCommonUser)
	}
}

func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHelper(c, common.RoleAdminUser)
	}
}
