package payment

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"storefront/config"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe付款頁面的有效時間需介於30分鐘到24小時之間
const (
	minSessionLifetime = 31 * time.Minute
	maxSessionLifetime = 24 * time.Hour
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(cfg config.PaymentConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	currency := strings.ToLower(req.Currency)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL + "?order=" + req.OrderNumber),
		CancelURL:         stripe.String(g.cancelURL + "?order=" + req.OrderNumber),
		ClientReferenceID: stripe.String(req.OrderNumber),
	}
	params.Context = ctx
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(sessionExpiry(req.ExpiresAt, time.Now()).Unix())
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	params.AddMetadata("order_id", strconv.FormatUint(uint64(req.OrderID), 10))
	params.AddMetadata("order_number", req.OrderNumber)

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "建立Stripe付款頁面失敗")
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// 將失效時間限制在Stripe允許的範圍內
func sessionExpiry(expiresAt, now time.Time) time.Time {
	if earliest := now.Add(minSessionLifetime); expiresAt.Before(earliest) {
		return earliest
	}
	if latest := now.Add(maxSessionLifetime); expiresAt.After(latest) {
		return latest
	}
	return expiresAt
}

func stripeSessionState(session *stripe.CheckoutSession) string {
	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return SessionPaid
	case session.Status == stripe.CheckoutSessionStatusOpen:
		return SessionOpen
	case session.Status == stripe.CheckoutSessionStatusComplete:
		// 非同步付款方式，結果由async_payment事件通知
		return SessionProcessing
	default:
		return SessionClosed
	}
}

func (g *StripeGateway) SessionState(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", errors.Wrap(err, "查詢Stripe付款狀態失敗")
	}
	return stripeSessionState(session), nil
}

func (g *StripeGateway) ExpireCheckout(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		return errors.Wrap(err, "無法讓Stripe付款頁面失效")
	}
	return nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSignature, err.Error())
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		return &WebhookEvent{Type: string(event.Type)}, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, errors.Wrap(err, "無法解析Stripe付款資料")
	}

	orderNumber := session.ClientReferenceID
	if orderNumber == "" {
		orderNumber = session.Metadata["order_number"]
	}
	return &WebhookEvent{
		Type:        EventCheckoutCompleted,
		SessionID:   session.ID,
		OrderNumber: orderNumber,
		Paid:        session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}
