package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ログのフィールド名
const (
	FieldOrderID   = "order_id"
	FieldPaymentID = "payment_id"
	FieldUserID    = "user_id"
	FieldStep      = "step"
	FieldStatus    = "status"
	FieldEvent     = "event"
)

// New は GO_ENV に合わせたロガーを作り、zap.L() にも設定する
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	switch env {
	case "production", "prod":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err = cfg.Build()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func OrderID(id int64) zap.Field   { return zap.Int64(FieldOrderID, id) }
func PaymentID(id int64) zap.Field { return zap.Int64(FieldPaymentID, id) }
func UserID(id int64) zap.Field    { return zap.Int64(FieldUserID, id) }
func Step(s string) zap.Field      { return zap.String(FieldStep, s) }
func Status(s string) zap.Field    { return zap.String(FieldStatus, s) }
func Event(s string) zap.Field     { return zap.String(FieldEvent, s) }
