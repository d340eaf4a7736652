package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type BreakerGateway struct {
	next    Gateway
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// 外嵌熔斷器
func NewBreakerGateway(next Gateway, log *logrus.Logger) *BreakerGateway {
	st := gobreaker.Settings{
		Name:        "PaymentGateway",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("熔斷器%s狀態由%s變為%s", name, from, to)
		},
	}

	return &BreakerGateway{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: 10 * time.Second,
	}
}

func (g *BreakerGateway) execute(ctx context.Context, call func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.cb.Execute(func() (interface{}, error) {
		return call(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return res, nil
}

func (g *BreakerGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	res, err := g.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return g.next.CreateCheckout(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*CheckoutSession), nil
}

func (g *BreakerGateway) SessionState(ctx context.Context, sessionID string) (string, error) {
	res, err := g.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return g.next.SessionState(ctx, sessionID)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (g *BreakerGateway) ExpireCheckout(ctx context.Context, sessionID string) error {
	_, err := g.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, g.next.ExpireCheckout(ctx, sessionID)
	})
	return err
}

// 驗證簽章不需要呼叫外部服務，不經過熔斷器
func (g *BreakerGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return g.next.ParseWebhook(payload, signature)
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}
