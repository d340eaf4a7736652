package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FakeGateway不連線任何外部服務，付款頁面直接導向successURL
type FakeGateway struct {
	successURL string
	secret     string

	mu       sync.Mutex
	requests []CheckoutRequest
	sessions map[string]string
	err      error
}

var ErrSessionNotFound = errors.New("查無此付款頁面")

func NewFakeGateway(successURL, secret string) *FakeGateway {
	return &FakeGateway{successURL: successURL, secret: secret, sessions: map[string]string{}}
}

// 設定所有呼叫回傳的錯誤，nil代表恢復正常
func (g *FakeGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *FakeGateway) Requests() []CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]CheckoutRequest(nil), g.requests...)
}

func (g *FakeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)

	id := "fake_cs_" + uuid.NewString()
	g.sessions[id] = SessionOpen
	return &CheckoutSession{ID: id, URL: g.successURL + "?order=" + req.OrderNumber + "&session=" + id}, nil
}

// Complete模擬顧客在付款頁面完成付款
func (g *FakeGateway) Complete(sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessions[sessionID] != SessionOpen {
		return errors.Wrap(ErrSessionNotFound, sessionID)
	}
	g.sessions[sessionID] = SessionPaid
	return nil
}

func (g *FakeGateway) SessionState(ctx context.Context, sessionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	state, ok := g.sessions[sessionID]
	if !ok {
		return "", errors.Wrap(ErrSessionNotFound, sessionID)
	}
	return state, nil
}

func (g *FakeGateway) ExpireCheckout(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	switch g.sessions[sessionID] {
	case SessionOpen:
		g.sessions[sessionID] = SessionClosed
		return nil
	case SessionClosed:
		return nil
	case "":
		return errors.Wrap(ErrSessionNotFound, sessionID)
	default:
		return errors.Errorf("付款頁面%s已完成付款", sessionID)
	}
}

type fakeWebhookPayload struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionID"`
	OrderNumber string `json:"orderNumber"`
	Paid        bool   `json:"paid"`
}

func (g *FakeGateway) mac(payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// Sign回傳payload的HMAC-SHA256簽章
func (g *FakeGateway) Sign(payload []byte) string {
	return hex.EncodeToString(g.mac(payload))
}

// 設定secret時才驗證簽章
func (g *FakeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.secret != "" {
		expected, err := hex.DecodeString(signature)
		if err != nil || !hmac.Equal(expected, g.mac(payload)) {
			return nil, ErrInvalidSignature
		}
	}

	var body fakeWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, errors.Wrap(err, "無法解析付款通知")
	}
	return &WebhookEvent{
		Type:        body.Type,
		SessionID:   body.SessionID,
		OrderNumber: body.OrderNumber,
		Paid:        body.Paid,
	}, nil
}
