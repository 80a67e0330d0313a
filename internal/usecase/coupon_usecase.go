package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"academy/internal/domain/pricing"
	repo "academy/internal/repository"
)

// CouponUsecase はクーポンの見積もり（表示用。使用回数は増やさない）
type CouponUsecase struct {
	coupons repo.CouponRepository
	clock   Clock
}

func NewCouponUsecase(coupons repo.CouponRepository, clock Clock) *CouponUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CouponUsecase{coupons: coupons, clock: clock}
}

type CouponQuote struct {
	Code         string               `json:"code"`
	Valid        bool                 `json:"valid"`
	Reason       pricing.CouponReason `json:"reason"`
	MeetsMinimum bool                 `json:"meets_minimum"`
	OrderAmount  int64                `json:"order_amount"`
	Discount     int64                `json:"discount"`
	Total        int64                `json:"total"`
}

func (u *CouponUsecase) Quote(ctx context.Context, code string, orderAmount int64) (CouponQuote, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 50 {
		return CouponQuote{}, NewError(KindInvalidInput, "invalid code")
	}
	if orderAmount < 0 {
		return CouponQuote{}, NewError(KindInvalidInput, "invalid amount")
	}

	c, err := u.coupons.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return CouponQuote{}, NewError(KindInvalidCoupon, "coupon not found")
	}
	if err != nil {
		return CouponQuote{}, fmt.Errorf("find coupon: %w", err)
	}

	q := CouponQuote{
		Code:         c.Code,
		Reason:       pricing.CheckValidity(c, u.clock.Now()),
		MeetsMinimum: pricing.MeetsMinimum(c, orderAmount),
		OrderAmount:  orderAmount,
		Total:        orderAmount,
	}
	q.Valid = q.Reason == pricing.CouponOK && q.MeetsMinimum
	if q.Valid {
		q.Discount = pricing.Discount(c, orderAmount)
		if q.Discount > orderAmount {
			q.Discount = orderAmount
		}
		q.Total = orderAmount - q.Discount
	}
	return q, nil
}
