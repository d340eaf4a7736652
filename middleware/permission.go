package middleware

import (
	"net/http"

	"storefront/models"

	"github.com/gin-gonic/gin"
)

// 檢查是否有指定的身分，沒有則中止請求
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, exists := c.Get(KeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "尚未登入",
			})
			return
		}
		if current != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "沒有權限",
			})
			return
		}

		c.Next()
	}
}

func CheckAdminPermissionMiddleware() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
