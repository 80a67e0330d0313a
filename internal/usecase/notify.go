package usecase

import (
	"context"
	"sync"
	"time"

	"academy/internal/infra/logging"
	"academy/internal/infra/metrics"

	"go.uber.org/zap"
)

const DefaultNotifyTimeout = 5 * time.Second

// Dispatcher は通知をリクエストから切り離して送る。
// 失敗はログに出すだけで呼び出し元には返さない
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *zap.Logger
	metrics  *metrics.Checkout
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, log *zap.Logger, m *metrics.Checkout) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{notifier: n, timeout: timeout, log: log, metrics: m}
}

func (d *Dispatcher) Fire(event string, payload any) {
	if d == nil || d.notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notifier panicked", logging.Event(event), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Send(ctx, event, payload); err != nil {
			d.metrics.Notified(event, false)
			d.log.Warn("notification failed", logging.Event(event), zap.Error(err))
			return
		}
		d.metrics.Notified(event, true)
	}()
}

// Wait は送信中の通知を待つ（シャットダウン時とテスト用）
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
