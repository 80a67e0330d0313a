package repository

import (
	"context"

	"academy/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	ExistsByCartAndCourse(ctx context.Context, cartID int64, courseID int64) (bool, error)
	// 同じ講座が既にあれば ErrDuplicate
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByCartAndCourses(ctx context.Context, cartID int64, courseIDs []int64) error
}
