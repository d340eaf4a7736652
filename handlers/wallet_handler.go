package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

func GetWalletHandler(c *gin.Context, wallet *services.WalletService) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	balances, err := wallet.Balances(ctx, userID)
	if err != nil {
		respondError(c, "無法讀取錢包餘額", err)
		return
	}
	transactions, err := wallet.Transactions(ctx, userID, 20, 0)
	if err != nil {
		respondError(c, "無法讀取錢包交易紀錄", err)
		return
	}
	rates, err := wallet.Rates(ctx)
	if err != nil {
		respondError(c, "無法讀取匯率", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "成功查詢錢包",
		"balances":     balances,
		"transactions": transactions,
		"rates":        rates,
	})
}

// 幣別轉換，amount為來源幣別的最小單位
func ConvertCurrencyHandler(c *gin.Context, wallet *services.WalletService) {
	var req struct {
		From   string `json:"from" binding:"required,len=3"`
		To     string `json:"to" binding:"required,len=3"`
		Amount int64  `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	result, err := wallet.Convert(c.Request.Context(), currentUserID(c), req.From, req.To, req.Amount)
	if err != nil {
		respondError(c, "幣別轉換失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功轉換幣別",
		"result":  result,
	})
}

func SetExchangeRateHandler(c *gin.Context, wallet *services.WalletService) {
	var req struct {
		Rate float64 `json:"rate" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	rate, err := wallet.SetRate(c.Request.Context(), c.Param("currency"), req.Rate)
	if err != nil {
		respondError(c, "更新匯率失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功更新匯率",
		"rate":    rate,
	})
}

// 管理員為使用者儲值
func DepositHandler(c *gin.Context, wallet *services.WalletService) {
	var req struct {
		UserID    uint   `json:"userID" binding:"required"`
		Currency  string `json:"currency" binding:"required,len=3"`
		Amount    int64  `json:"amount" binding:"required"`
		Reference string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	balance, err := wallet.Deposit(c.Request.Context(), req.UserID, req.Currency, req.Amount, req.Reference)
	if err != nil {
		respondError(c, "儲值失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功儲值",
		"balance": balance,
	})
}
