package pricing

import (
	"time"

	"academy/internal/domain/model"

	"github.com/shopspring/decimal"
)

// CouponReason はクーポンが使えない理由。メッセージ出し分け用
type CouponReason string

const (
	CouponOK             CouponReason = "OK"
	CouponInactive       CouponReason = "COUPON_INACTIVE"
	CouponNotStarted     CouponReason = "COUPON_NOT_STARTED"
	CouponExpired        CouponReason = "COUPON_EXPIRED"
	CouponUsageExhausted CouponReason = "COUPON_USAGE_EXHAUSTED"
)

var hundred = decimal.NewFromInt(100)

// Discount は orderAmount に対する割引額。
// percentage は最小通貨単位で切り捨て、MaxDiscount があれば上限をかける。fixed はそのまま。
func Discount(c model.Coupon, orderAmount int64) int64 {
	switch c.Type {
	case model.CouponTypePercentage:
		d := decimal.NewFromInt(orderAmount).Mul(c.Discount).Div(hundred).Floor().IntPart()
		if c.MaxDiscount != nil && d > *c.MaxDiscount {
			d = *c.MaxDiscount
		}
		if d < 0 {
			return 0
		}
		return d
	case model.CouponTypeFixed:
		return c.Discount.IntPart()
	default:
		return 0
	}
}

// MeetsMinimum は最低注文金額を満たすか。未設定なら常に true
func MeetsMinimum(c model.Coupon, orderAmount int64) bool {
	if c.MinOrderAmount == nil {
		return true
	}
	return orderAmount >= *c.MinOrderAmount
}

// CheckValidity は now 時点でクーポンが使えるか。最初に引っかかった理由を返す
func CheckValidity(c model.Coupon, now time.Time) CouponReason {
	if c.Status != model.CouponStatusActive {
		return CouponInactive
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return CouponNotStarted
	}
	if c.ExpireDate != nil && now.After(*c.ExpireDate) {
		return CouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return CouponUsageExhausted
	}
	return CouponOK
}
