// Package worker runs the background jobs of the storefront process.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type ExpiredOrderCanceller interface {
	CancelExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CleanupWorker定期取消逾期未付款的訂單並刪除過期的登入Token
type CleanupWorker struct {
	orders   ExpiredOrderCanceller
	tokens   TokenPurger
	timeout  time.Duration
	interval time.Duration
	logger   *logrus.Logger
}

func NewCleanupWorker(orders ExpiredOrderCanceller, tokens TokenPurger, timeout, interval time.Duration, log *logrus.Logger) *CleanupWorker {
	return &CleanupWorker{
		orders:   orders,
		tokens:   tokens,
		timeout:  timeout,
		interval: interval,
		logger:   log,
	}
}

// Start阻塞直到ctx結束
func (w *CleanupWorker) Start(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Infof("開始定期清理逾期訂單(每%s)", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("停止清理逾期訂單")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *CleanupWorker) RunOnce(ctx context.Context) {
	cancelled, err := w.orders.CancelExpired(ctx, w.timeout)
	if err != nil {
		w.logger.Errorf("取消逾期訂單失敗: %v", err)
	} else if cancelled > 0 {
		w.logger.Infof("已取消%d筆逾期訂單", cancelled)
	}

	if w.tokens == nil {
		return
	}
	purged, err := w.tokens.PurgeExpired(ctx)
	if err != nil {
		w.logger.Errorf("刪除過期登入Token失敗: %v", err)
	} else if purged > 0 {
		w.logger.Debugf("已刪除%d筆過期登入Token", purged)
	}
}
