package repository

import (
	"context"

	"academy/internal/domain/model"
)

type CouponRepository interface {
	FindByID(ctx context.Context, id int64) (model.Coupon, error)
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	// 上限内のときだけ usage_count を1増やす（DB側で原子的に）。増えたら true
	IncrementUsage(ctx context.Context, id int64) (bool, error)
}
