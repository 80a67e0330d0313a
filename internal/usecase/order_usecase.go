package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"academy/internal/domain/model"
	"academy/internal/domain/pricing"
	repo "academy/internal/repository"
)

type OrderUsecase struct {
	tx      repo.TransactionManager
	courses repo.CourseRepository
	carts   repo.CartRepository
	items   repo.CartItemRepository
	clock   Clock
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	courses repo.CourseRepository,
	carts repo.CartRepository,
	items repo.CartItemRepository,
	clock Clock,
) *OrderUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &OrderUsecase{tx: tx, courses: courses, carts: carts, items: items, clock: clock}
}

type CreateOrderInput struct {
	CourseIDs []int64
	// 記録のみ。割引は計算しない
	CouponID *int64
}

type OrderItemOutput struct {
	CourseID  int64  `json:"course_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	Status         string            `json:"status"`
	SubtotalAmount int64             `json:"subtotal_amount"`
	TotalAmount    int64             `json:"total_amount"`
	CouponID       *int64            `json:"coupon_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []OrderItemOutput `json:"items"`
}

// 講座IDの一覧から注文を作る（全件解決できなければ作らない）
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewError(KindInvalidInput, "invalid user")
	}
	if len(in.CourseIDs) == 0 {
		return OrderOutput{}, NewError(KindInvalidInput, "course_ids is required")
	}
	if in.CouponID != nil && *in.CouponID <= 0 {
		return OrderOutput{}, NewError(KindInvalidInput, "invalid coupon_id")
	}
	seen := make(map[int64]struct{}, len(in.CourseIDs))
	for _, id := range in.CourseIDs {
		if id <= 0 {
			return OrderOutput{}, NewError(KindInvalidInput, "invalid course_id")
		}
		if _, dup := seen[id]; dup {
			return OrderOutput{}, NewError(KindInvalidInput, fmt.Sprintf("course %d is listed twice", id))
		}
		seen[id] = struct{}{}
	}

	courses, err := u.courses.FindByIDs(ctx, in.CourseIDs)
	if err != nil {
		return OrderOutput{}, fmt.Errorf("find courses: %w", err)
	}
	byID := make(map[int64]model.Course, len(courses))
	for _, c := range courses {
		if c.IsPublished {
			byID[c.ID] = c
		}
	}
	var missing []int64
	for _, id := range in.CourseIDs {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return OrderOutput{}, &Error{
			Kind:             KindCourseNotFound,
			Message:          fmt.Sprintf("courses not found: %v", missing),
			MissingCourseIDs: missing,
		}
	}

	// 価格は1回の時刻で確定させる
	now := u.clock.Now()
	orderItems := make([]model.OrderItem, 0, len(in.CourseIDs))
	var subtotal int64
	for _, id := range in.CourseIDs {
		c := byID[id]
		price := pricing.EffectivePrice(c, now)
		orderItems = append(orderItems, model.OrderItem{
			CourseID:            c.ID,
			CourseTitleSnapshot: c.Title,
			UnitPrice:           price,
			CreatedAt:           now,
		})
		subtotal += price
	}

	order := model.Order{
		UserID:         userID,
		SubtotalAmount: subtotal,
		TotalAmount:    subtotal,
		CouponID:       in.CouponID,
		Status:         model.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// 明細の作成に失敗したら注文ごとロールバック
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		order.ID = orderID
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	return toOrderOutput(order, orderItems), nil
}

// カートの中身で注文を作る
func (u *OrderUsecase) CreateOrderFromCart(ctx context.Context, userID int64, couponID *int64) (OrderOutput, error) {
	cart, err := u.carts.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewError(KindInvalidInput, "cart is empty")
	}
	if err != nil {
		return OrderOutput{}, fmt.Errorf("find cart: %w", err)
	}
	cartItems, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return OrderOutput{}, fmt.Errorf("list cart items: %w", err)
	}
	if len(cartItems) == 0 {
		return OrderOutput{}, NewError(KindInvalidInput, "cart is empty")
	}

	ids := make([]int64, 0, len(cartItems))
	for _, it := range cartItems {
		ids = append(ids, it.CourseID)
	}
	return u.CreateOrder(ctx, userID, CreateOrderInput{CourseIDs: ids, CouponID: couponID})
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewError(KindInvalidInput, "invalid user")
	}

	//ページングはまずは固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("list order items: %w", err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewError(KindInvalidInput, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return &Error{Kind: KindOrderNotFound, Message: "order not found", OrderID: orderID}
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return &Error{Kind: KindOrderNotFound, Message: "order not found", OrderID: orderID}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			CourseID:  it.CourseID,
			Title:     it.CourseTitleSnapshot,
			UnitPrice: it.UnitPrice,
		})
	}

	return OrderOutput{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         string(o.Status),
		SubtotalAmount: o.SubtotalAmount,
		TotalAmount:    o.TotalAmount,
		CouponID:       o.CouponID,
		CreatedAt:      o.CreatedAt,
		Items:          outItems,
	}
}
