package middleware

import (
	"strings"

	"storefront/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// gin.Context中的鍵值
const (
	KeyUserID   = "UserID"
	KeyRole     = "Role"
	KeyToken    = "Token"
	KeyTenantID = "TenantID"
	KeyTenant   = "Tenant"
)

// 驗證Token並寫入使用者資料，Token不合法時視為未登入
func AuthMiddleware(tokens *jwt.Manager, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token == "" {
			c.Next()
			return
		}

		//如Token不合法或錯誤則回傳空Authorization
		claims, err := tokens.VerifyToken(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Debug("無法驗證Token")
			c.Header("Authorization", "")
			c.Next()
			return
		}

		c.Set(KeyToken, token)
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}
