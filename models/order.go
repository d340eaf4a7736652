package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	// 訂單取消後才收到付款且庫存已不足，等待退款
	OrderStatusRefundRequired = "refund_required"
	OrderStatusRefunded       = "refunded"
)

type Order struct {
	gorm.Model
	TenantID         uint   `gorm:"index;not null"`
	OrderNumber      string `gorm:"size:64;uniqueIndex;not null"`
	UserID           uint   `gorm:"index"`
	User             User   `json:"-"`
	OrderItems       []OrderItem
	Total            int64  `gorm:"not null"`
	Currency         string `gorm:"size:3;not null"`
	ShippingMethod   string `gorm:"not null"`
	Name             string `gorm:"not null"`
	Address          string `gorm:"not null"`
	Phone            string `gorm:"not null"`
	Status           string `gorm:"size:16;index;not null"`
	PaymentSessionID string `gorm:"size:255;index"`
	PaidAt           *time.Time
}
