package handlers

import (
	"bytes"
	"net/http"

	"storefront/invoice"
	"storefront/services"

	"github.com/gin-gonic/gin"
)

// 送出訂單並清除購物車內對應商品
func SendOrderHandler(c *gin.Context, orders *services.OrderService) {
	var req services.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "取得訂單資料錯誤", err)
		return
	}

	order, err := orders.PlaceOrder(c.Request.Context(), currentTenantID(c), currentUserID(c), req)
	if err != nil {
		respondError(c, "提交訂單失敗", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "訂單已送出",
		"order":   order,
	})
}

// 建立付款頁面，可指定已建立的訂單或同時送出新訂單
func CheckoutHandler(c *gin.Context, orders *services.OrderService) {
	var req struct {
		OrderID uint                      `json:"orderID"`
		Order   *services.PlaceOrderInput `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "取得訂單資料錯誤", err)
		return
	}

	ctx := c.Request.Context()
	tenantID, userID := currentTenantID(c), currentUserID(c)

	orderID := req.OrderID
	if orderID == 0 {
		if req.Order == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "請提供orderID或訂單資料",
			})
			return
		}
		order, err := orders.PlaceOrder(ctx, tenantID, userID, *req.Order)
		if err != nil {
			respondError(c, "提交訂單失敗", err)
			return
		}
		orderID = order.ID
	}

	order, session, err := orders.Checkout(ctx, tenantID, userID, orderID)
	if err != nil {
		respondError(c, "建立付款頁面失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "成功建立付款頁面",
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"checkoutURL": session.URL,
	})
}

func GetOrderListHandler(c *gin.Context, orders *services.OrderService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	orderRows, total, err := orders.ListOrders(c.Request.Context(), currentTenantID(c), currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, "查詢訂單列表失敗", err)
		return
	}

	orderList := make([]gin.H, 0, len(orderRows))
	for _, order := range orderRows {
		orderList = append(orderList, gin.H{
			"orderID":        order.ID,
			"orderNumber":    order.OrderNumber,
			"orderTime":      order.CreatedAt,
			"shippingMethod": order.ShippingMethod,
			"total":          order.Total,
			"currency":       order.Currency,
			"status":         order.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功查詢訂單列表",
		"orderList":  orderList,
		"totalCount": total,
	})
}

func GetOrderDataHandler(c *gin.Context, orders *services.OrderService) {
	orderID, ok := paramID(c, "orderID")
	if !ok {
		return
	}

	order, err := orders.GetOrder(c.Request.Context(), currentTenantID(c), currentUserID(c), orderID)
	if err != nil {
		respondError(c, "查詢訂單資料失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢訂單資料",
		"order":   order,
	})
}

func CancelOrderHandler(c *gin.Context, orders *services.OrderService) {
	orderID, ok := paramID(c, "orderID")
	if !ok {
		return
	}

	order, err := orders.Cancel(c.Request.Context(), currentTenantID(c), currentUserID(c), orderID)
	if err != nil {
		respondError(c, "取消訂單失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功取消訂單",
		"status":  order.Status,
	})
}

func PayWithWalletHandler(c *gin.Context, orders *services.OrderService) {
	orderID, ok := paramID(c, "orderID")
	if !ok {
		return
	}

	order, balance, err := orders.PayWithWallet(c.Request.Context(), currentTenantID(c), currentUserID(c), orderID)
	if err != nil {
		respondError(c, "錢包付款失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功以錢包付款",
		"status":  order.Status,
		"balance": balance,
	})
}

// 下載PDF發票
func InvoiceHandler(c *gin.Context, orders *services.OrderService, invoices *invoice.Renderer) {
	orderID, ok := paramID(c, "orderID")
	if !ok {
		return
	}

	order, err := orders.GetOrder(c.Request.Context(), currentTenantID(c), currentUserID(c), orderID)
	if err != nil {
		respondError(c, "查詢訂單資料失敗", err)
		return
	}

	storeName := ""
	if tenant := currentTenant(c); tenant != nil {
		storeName = tenant.Name
	}

	var buf bytes.Buffer
	if err := invoices.Render(&buf, invoice.FromOrder(storeName, *order)); err != nil {
		respondError(c, "產生發票失敗", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+order.OrderNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// 管理員查詢訂單列表，可用status篩選
func GetAllOrdersHandler(c *gin.Context, orders *services.OrderService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	orderRows, total, err := orders.ListAllOrders(c.Request.Context(), currentTenantID(c), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, "查詢訂單列表失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功查詢訂單列表",
		"orders":     orderRows,
		"totalCount": total,
	})
}

func UpdateOrderStatusHandler(c *gin.Context, orders *services.OrderService) {
	orderID, ok := paramID(c, "orderID")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	order, err := orders.UpdateStatus(c.Request.Context(), currentTenantID(c), orderID, req.Status)
	if err != nil {
		respondError(c, "更新訂單狀態失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功更新訂單狀態",
		"status":  order.Status,
	})
}
