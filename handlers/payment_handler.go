package handlers

import (
	"io"
	"net/http"

	"storefront/payment"
	"storefront/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// 付款服務的通知，簽章錯誤回應400讓付款服務停止重送
func PaymentWebhookHandler(c *gin.Context, gateway payment.Gateway, orders *services.OrderService) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "讀取付款通知失敗", err)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Signature")
	}

	event, err := gateway.ParseWebhook(payload, signature)
	if err != nil {
		respondError(c, "付款通知驗證失敗", err)
		return
	}

	if err := orders.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		respondError(c, "處理付款通知失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
	})
}
