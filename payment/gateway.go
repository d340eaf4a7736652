// Package payment creates hosted checkout sessions and verifies payment webhooks.
package payment

import (
	"context"
	"fmt"
	"time"

	"storefront/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnavailable      = errors.New("付款服務暫時無法使用")
	ErrInvalidSignature = errors.New("付款通知簽章錯誤")
)

const EventCheckoutCompleted = "checkout.completed"

// 付款頁面狀態
const (
	SessionOpen       = "open"
	SessionPaid       = "paid"
	SessionProcessing = "processing"
	SessionClosed     = "closed"
)

type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutRequest struct {
	OrderID       uint
	OrderNumber   string
	Currency      string
	CustomerEmail string
	Items         []LineItem
	// 付款頁面失效時間，零值代表使用付款服務的預設值
	ExpiresAt time.Time
}

func (r CheckoutRequest) Total() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.UnitAmount * item.Quantity
	}
	return total
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// 只有Type為EventCheckoutCompleted且Paid為true時代表訂單已付款
type WebhookEvent struct {
	Type        string
	SessionID   string
	OrderNumber string
	Paid        bool
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
	SessionState(ctx context.Context, sessionID string) (string, error)
	// 讓仍開啟的付款頁面失效，已完成付款時回傳錯誤
	ExpireCheckout(ctx context.Context, sessionID string) error
}

// 依照設定建立付款服務，外層包上熔斷器
func NewGateway(cfg config.PaymentConfig, log *logrus.Logger) (Gateway, error) {
	var gateway Gateway
	switch cfg.Provider {
	case config.PaymentProviderStripe:
		gateway = NewStripeGateway(cfg)
	case config.PaymentProviderFake:
		gateway = NewFakeGateway(cfg.SuccessURL, cfg.WebhookSecret)
	default:
		return nil, fmt.Errorf("不支援的付款服務: %s", cfg.Provider)
	}
	return NewBreakerGateway(gateway, log), nil
}
