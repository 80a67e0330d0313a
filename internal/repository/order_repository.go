package repository

import (
	"context"
	"time"

	"academy/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// from のときだけ to に変える。変わったら true
	UpdateStatusIf(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error)

	// pending かつリースが空いている（期限切れ含む）ときだけ取れる
	ClaimPaymentLease(ctx context.Context, orderID int64, token string, now time.Time, until time.Time) (bool, error)
	// token を持っていて、まだ pending か
	HoldsPaymentLease(ctx context.Context, orderID int64, token string, now time.Time) (bool, error)
	ReleasePaymentLease(ctx context.Context, orderID int64, token string) error
}
