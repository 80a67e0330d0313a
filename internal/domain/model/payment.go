package model

import "time"

type PaymentType string

const (
	PaymentTypeCard         PaymentType = "card"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSuccessful, PaymentStatusFailed:
		return true
	case PaymentStatusPending:
		return false
	default:
		return false
	}
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSuccessful || next == PaymentStatusFailed
	case PaymentStatusSuccessful, PaymentStatusFailed:
		return false
	default:
		return false
	}
}

// 決済の試行1回につき1行。失敗後の再試行は新しい行を作る
type Payment struct {
	ID              int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         int64         `gorm:"not null;index" json:"order_id"`
	UserID          int64         `gorm:"not null;index" json:"user_id"`
	PaymentType     PaymentType   `gorm:"type:varchar(20);not null" json:"payment_type"`
	Status          PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount          int64         `gorm:"not null" json:"amount"`
	GatewayChargeID *string       `gorm:"type:varchar(100);index" json:"gateway_charge_id,omitempty"`
	FailureCode     *string       `gorm:"type:varchar(100)" json:"failure_code,omitempty"`
	SlipImageURL    *string       `gorm:"type:text" json:"slip_image_url,omitempty"`
	SlipImagePath   *string       `gorm:"type:text" json:"-"`
	ReviewedBy      *int64        `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	RejectReason    *string       `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
