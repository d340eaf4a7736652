package handlers

import (
	"net/http"
	"strconv"

	"storefront/jwt"
	"storefront/middleware"
	"storefront/models"
	"storefront/payment"
	"storefront/services"
	"storefront/storage"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrTenantNotFound, http.StatusNotFound},
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrProductNotFound, http.StatusNotFound},
	{services.ErrCategoryNotFound, http.StatusNotFound},
	{services.ErrCartNotFound, http.StatusNotFound},
	{services.ErrCartItemNotFound, http.StatusNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound},
	{services.ErrWishlistItemAbsent, http.StatusNotFound},
	{services.ErrAddressNotFound, http.StatusNotFound},
	{services.ErrPostNotFound, http.StatusNotFound},

	{services.ErrInvalidUsername, http.StatusBadRequest},
	{services.ErrInvalidEmail, http.StatusBadRequest},
	{services.ErrInvalidPassword, http.StatusBadRequest},
	{services.ErrInvalidQuantity, http.StatusBadRequest},
	{services.ErrEmptyOrder, http.StatusBadRequest},
	{services.ErrShippingRequired, http.StatusBadRequest},
	{services.ErrInvalidAmount, http.StatusBadRequest},
	{services.ErrSameCurrency, http.StatusBadRequest},
	{services.ErrUnknownCurrency, http.StatusBadRequest},
	{services.ErrAmountOverflow, http.StatusBadRequest},
	{storage.ErrUnsupportedImage, http.StatusBadRequest},
	{payment.ErrInvalidSignature, http.StatusBadRequest},

	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{jwt.ErrTokenRevoked, http.StatusUnauthorized},
	{services.ErrWrongPassword, http.StatusForbidden},
	{services.ErrInsufficientFunds, http.StatusPaymentRequired},

	{services.ErrUsernameTaken, http.StatusConflict},
	{services.ErrEmailTaken, http.StatusConflict},
	{services.ErrSlugTaken, http.StatusConflict},
	{services.ErrOutOfStock, http.StatusConflict},
	{services.ErrInsufficientStock, http.StatusConflict},
	{services.ErrInvalidOrderStatus, http.StatusConflict},
	{services.ErrOrderExpired, http.StatusConflict},

	{payment.ErrUnavailable, http.StatusServiceUnavailable},
}

func statusOf(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// 回傳錯誤，已知錯誤的訊息直接使用錯誤本身
func respondError(c *gin.Context, message string, err error) {
	status := statusOf(err)
	if status != http.StatusInternalServerError {
		message = errors.Cause(err).Error()
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message": message,
		"error":   err.Error(),
	})
}

func currentTenantID(c *gin.Context) uint {
	return c.GetUint(middleware.KeyTenantID)
}

func currentTenant(c *gin.Context) *models.Tenant {
	tenant, _ := c.Get(middleware.KeyTenant)
	t, _ := tenant.(*models.Tenant)
	return t
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.KeyUserID)
}

// 讀取路徑上的ID參數，格式錯誤時回應400
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": name + "輸入錯誤",
			"error":   "invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// 讀取limit與offset，上限由service處理
func pagination(c *gin.Context) (int, int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		badRequest(c, "查詢數量輸入錯誤", err)
		return 0, 0, false
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		badRequest(c, "offset輸入錯誤", err)
		return 0, 0, false
	}
	return limit, offset, true
}
