package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

func GetAddressListHandler(c *gin.Context, addresses *services.AddressService) {
	list, err := addresses.List(c.Request.Context(), currentTenantID(c), currentUserID(c))
	if err != nil {
		respondError(c, "查詢地址列表失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "成功查詢地址列表",
		"addresses": list,
	})
}

func CreateAddressHandler(c *gin.Context, addresses *services.AddressService) {
	var req services.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	address, err := addresses.Create(c.Request.Context(), currentTenantID(c), currentUserID(c), req)
	if err != nil {
		respondError(c, "新增地址失敗", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "成功新增地址",
		"address": address,
	})
}

func UpdateAddressHandler(c *gin.Context, addresses *services.AddressService) {
	addressID, ok := paramID(c, "addressID")
	if !ok {
		return
	}

	var req services.AddressPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	address, err := addresses.Update(c.Request.Context(), currentTenantID(c), currentUserID(c), addressID, req)
	if err != nil {
		respondError(c, "修改地址失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改地址",
		"address": address,
	})
}

func DeleteAddressHandler(c *gin.Context, addresses *services.AddressService) {
	addressID, ok := paramID(c, "addressID")
	if !ok {
		return
	}

	if err := addresses.Delete(c.Request.Context(), currentTenantID(c), currentUserID(c), addressID); err != nil {
		respondError(c, "刪除地址失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除地址",
	})
}
