package usecase

import (
	"context"
	"time"

	"academy/internal/infra/gateway"
	"academy/internal/infra/storage"

	"github.com/google/uuid"
)

// テストで時刻を固定するため
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// リーストークンなどの生成
type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// カード決済ゲートウェイ
type PaymentGateway interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error)
	Retrieve(ctx context.Context, chargeID string) (gateway.ChargeResult, error)
}

// 振込明細の保存先
type ObjectStorage interface {
	Upload(ctx context.Context, obj storage.Object, pathHint string) (storage.Stored, error)
	Delete(ctx context.Context, path string) error
}

// 外部通知（Kafka / RabbitMQ など）
type Notifier interface {
	Send(ctx context.Context, event string, payload any) error
}

// アップロードされた振込明細
type SlipFile struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// 検証済み明細の情報
type SlipInfo struct {
	ContentType string
	Width       int
	Height      int
	Size        int64
}

type SlipValidator interface {
	ValidateSlip(f SlipFile) (SlipInfo, error)
}

// 通知イベント名
const (
	EventSlipSubmitted = "payment.slip_submitted"
	EventOrderSettled  = "order.settled"
)
