package handlers

import (
	"net/http"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func RegisterHandler(c *gin.Context, users *services.UserService) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	user, err := users.Register(c.Request.Context(), req, models.RoleUser)
	if err != nil {
		respondError(c, "註冊失敗", err)
		return
	}

	//成功註冊
	c.JSON(http.StatusCreated, gin.H{
		"message":  "使用者已成功註冊",
		"username": user.Username,
	})
}

// 登入成功後自動合併匿名購物車
func LoginHandler(c *gin.Context, users *services.UserService, carts *services.CartService, log *logrus.Logger) {
	//檢查是否已經登入
	if _, ok := c.Get(middleware.KeyUserID); ok {
		c.JSON(http.StatusOK, gin.H{
			"message": "已經登入",
		})
		return
	}

	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	result, err := users.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
	if err != nil {
		respondError(c, "登入失敗", err)
		return
	}

	merged := 0
	if anonymousCartID := getAnonymousCartID(c); anonymousCartID != "" {
		merged, err = carts.Merge(c.Request.Context(), currentTenantID(c), result.User.ID, anonymousCartID)
		if err != nil {
			log.WithError(err).WithField("userID", result.User.ID).Warn("登入後合併購物車失敗")
		} else {
			clearAnonymousCartID(c)
		}
	}

	//成功登入 回傳Token和成功訊息
	c.Header("Authorization", "Bearer "+result.Token)
	c.JSON(http.StatusOK, gin.H{
		"message":     "成功登入",
		"token":       result.Token,
		"expiresAt":   result.ExpiresAt,
		"role":        result.User.Role,
		"mergedItems": merged,
	})
}

func LogOutHandler(c *gin.Context, users *services.UserService) {
	token := c.GetString(middleware.KeyToken)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "無法取得Token",
		})
		return
	}

	if err := users.Logout(c.Request.Context(), token); err != nil {
		respondError(c, "登出失敗", err)
		return
	}

	c.Header("Authorization", "")
	c.JSON(http.StatusOK, gin.H{
		"message": "成功登出",
	})
}

// 查詢使用者資料
func GetUserProfileHandler(c *gin.Context, users *services.UserService) {
	user, err := users.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, "無法取得使用者資料", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢使用者資料",
		"user":    user,
	})
}

// 變更使用者資料
func UpdateUserProfileHandler(c *gin.Context, users *services.UserService) {
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	changed, err := users.UpdateProfile(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, "更新使用者資料失敗", err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{
			"message": "沒有資料變更",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功更新使用者資料",
	})
}

// 查詢使用者列表
func GetUserListHandler(c *gin.Context, users *services.UserService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	userList, total, err := users.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, "無法獲取使用者列表", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功獲取使用者列表",
		"userList":   userList,
		"totalCount": total,
	})
}
