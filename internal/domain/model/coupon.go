package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

// クーポン。更新されるのは usage_count の加算だけ
type Coupon struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Type           CouponType      `gorm:"type:varchar(20);not null" json:"type"`
	Discount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	MinOrderAmount *int64          `json:"min_order_amount,omitempty"`
	MaxDiscount    *int64          `json:"max_discount,omitempty"`
	UsageLimit     *int64          `json:"usage_limit,omitempty"`
	UsageCount     int64           `gorm:"not null;default:0" json:"usage_count"`
	Status         CouponStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	ExpireDate     *time.Time      `json:"expire_date,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
