package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogNotifier はブローカーなしの環境用。イベントをログに出すだけ
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, event string, payload any) error {
	env, _, err := encode(event, payload, time.Now())
	if err != nil {
		return err
	}
	n.log.Info("notification", zap.String("event", event), zap.String("id", env.ID), zap.ByteString("payload", env.Payload))
	return nil
}
