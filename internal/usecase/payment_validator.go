package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"
)

// 決済1回分として注文を押さえておく時間。ゲートウェイのタイムアウトより長くする
const DefaultPaymentLeaseTTL = 2 * time.Minute

// ValidatedOrder は決済してよいと確認できた注文
type ValidatedOrder struct {
	Order model.Order
	Items []model.OrderItem
	// 決済額は必ずこれを使う
	ChargeAmount int64
	LeaseToken   string
}

type PaymentValidator struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	payments   repo.PaymentRepository
	clock      Clock
	ids        IDGenerator
	leaseTTL   time.Duration
}

func NewPaymentValidator(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	payments repo.PaymentRepository,
	clock Clock,
	ids IDGenerator,
	leaseTTL time.Duration,
) *PaymentValidator {
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if leaseTTL <= 0 {
		leaseTTL = DefaultPaymentLeaseTTL
	}
	return &PaymentValidator{
		orders:     orders,
		orderItems: orderItems,
		payments:   payments,
		clock:      clock,
		ids:        ids,
		leaseTTL:   leaseTTL,
	}
}

// Validate は上から順にチェックし、最初に引っかかったものを返す。
// 通ったら注文にリースを取り、同じ注文への同時決済は1つだけ進める
func (v *PaymentValidator) Validate(ctx context.Context, userID int64, orderID int64) (ValidatedOrder, error) {
	order, err := v.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return ValidatedOrder{}, &Error{Kind: KindOrderNotFound, Message: "order not found", OrderID: orderID}
	}
	if err != nil {
		return ValidatedOrder{}, fmt.Errorf("find order: %w", err)
	}

	if order.UserID != userID {
		return ValidatedOrder{}, &Error{Kind: KindAccessDenied, Message: "order belongs to another account", OrderID: orderID}
	}

	if order.Status != model.OrderStatusPending {
		return ValidatedOrder{}, &Error{Kind: KindAlreadyProcessed, Message: "order is already " + string(order.Status), OrderID: orderID}
	}

	// 審査待ちの振込などがあれば二重決済になる
	if err := v.checkNoPendingPayment(ctx, orderID); err != nil {
		return ValidatedOrder{}, err
	}

	items, err := v.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return ValidatedOrder{}, fmt.Errorf("list order items: %w", err)
	}
	if len(items) == 0 {
		return ValidatedOrder{}, &Error{Kind: KindEmptyOrder, Message: "order has no items", OrderID: orderID}
	}

	if order.TotalAmount < model.GatewayMinimumChargeAmount {
		return ValidatedOrder{}, &Error{
			Kind:    KindBelowMinimumAmount,
			Message: fmt.Sprintf("amount must be at least %d", model.GatewayMinimumChargeAmount),
			OrderID: orderID,
		}
	}

	now := v.clock.Now()
	token := v.ids.NewID()
	claimed, err := v.orders.ClaimPaymentLease(ctx, orderID, token, now, now.Add(v.leaseTTL))
	if err != nil {
		return ValidatedOrder{}, fmt.Errorf("claim payment lease: %w", err)
	}
	if !claimed {
		return ValidatedOrder{}, &Error{Kind: KindAlreadyProcessed, Message: "another payment for this order is in progress", OrderID: orderID}
	}

	// 最初の確認からリース取得までの間に、前の試行が pending の決済を残して
	// リースを手放していることがある。リースを持った状態でもう一度見る
	if err := v.checkNoPendingPayment(ctx, orderID); err != nil {
		if rerr := v.orders.ReleasePaymentLease(context.WithoutCancel(ctx), orderID, token); rerr != nil {
			return ValidatedOrder{}, errors.Join(err, fmt.Errorf("release payment lease: %w", rerr))
		}
		return ValidatedOrder{}, err
	}

	order.PaymentLeaseToken = token
	return ValidatedOrder{
		Order:        order,
		Items:        items,
		ChargeAmount: order.TotalAmount,
		LeaseToken:   token,
	}, nil
}

// ensureHeld は書き込み直前の再確認
func (v *PaymentValidator) ensureHeld(ctx context.Context, vo ValidatedOrder) error {
	held, err := v.orders.HoldsPaymentLease(ctx, vo.Order.ID, vo.LeaseToken, v.clock.Now())
	if err != nil {
		return fmt.Errorf("check payment lease: %w", err)
	}
	if !held {
		return &Error{Kind: KindAlreadyProcessed, Message: "order is no longer payable", OrderID: vo.Order.ID}
	}
	return v.checkNoPendingPayment(ctx, vo.Order.ID)
}

func (v *PaymentValidator) checkNoPendingPayment(ctx context.Context, orderID int64) error {
	hasPending, err := v.payments.HasPendingByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check pending payments: %w", err)
	}
	if hasPending {
		return &Error{Kind: KindAlreadyProcessed, Message: "a payment for this order is already in progress", OrderID: orderID}
	}
	return nil
}

// Release はリースを手放す（期限切れでも自然に空く）
func (v *PaymentValidator) Release(ctx context.Context, vo ValidatedOrder) error {
	if vo.LeaseToken == "" {
		return nil
	}
	return v.orders.ReleasePaymentLease(ctx, vo.Order.ID, vo.LeaseToken)
}
