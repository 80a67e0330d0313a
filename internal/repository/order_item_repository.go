package repository

import (
	"context"

	"academy/internal/domain/model"
)

// 注文明細。作成後は読むだけ
type OrderItemRepository interface {
	// 同じ講座が2回あれば ErrDuplicate
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
