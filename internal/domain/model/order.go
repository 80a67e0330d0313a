package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusSuccessful OrderStatus = "successful"
	OrderStatusFailed     OrderStatus = "failed"
)

// ゲートウェイが受け付ける最小決済額（最小通貨単位）
const GatewayMinimumChargeAmount int64 = 2000

// 終端ステータスか
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusSuccessful, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// pending からだけ遷移できる
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusSuccessful || next == OrderStatusFailed
	case OrderStatusSuccessful, OrderStatusFailed:
		return false
	default:
		return false
	}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusSuccessful, OrderStatusFailed:
		return true
	}
	return false
}

// 注文。作成後に変わるのは status と決済リースだけ
type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64       `gorm:"not null;index" json:"user_id"`
	SubtotalAmount int64       `gorm:"not null" json:"subtotal_amount"`
	TotalAmount    int64       `gorm:"not null" json:"total_amount"`
	CouponID       *int64      `gorm:"index" json:"coupon_id,omitempty"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// 決済の同時実行を1つに絞るためのリース
	PaymentLeaseToken string     `gorm:"type:varchar(64);not null;default:''" json:"-"`
	PaymentLeaseUntil *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
