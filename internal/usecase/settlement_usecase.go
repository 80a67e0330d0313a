package usecase

import (
	"context"
	"errors"
	"fmt"

	"academy/internal/domain/model"
	"academy/internal/infra/logging"
	"academy/internal/infra/metrics"
	repo "academy/internal/repository"

	"go.uber.org/zap"
)

// SettlementUsecase は成功した決済を受講登録と注文確定に反映する。
// 何度呼んでも結果は同じ
type SettlementUsecase struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	enrollments repo.EnrollmentRepository
	coupons     repo.CouponRepository
	carts       repo.CartRepository
	cartItems   repo.CartItemRepository
	dispatcher  *Dispatcher
	log         *zap.Logger
	metrics     *metrics.Checkout
}

func NewSettlementUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	enrollments repo.EnrollmentRepository,
	coupons repo.CouponRepository,
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	dispatcher *Dispatcher,
	log *zap.Logger,
	m *metrics.Checkout,
) *SettlementUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettlementUsecase{
		orders:      orders,
		orderItems:  orderItems,
		enrollments: enrollments,
		coupons:     coupons,
		carts:       carts,
		cartItems:   cartItems,
		dispatcher:  dispatcher,
		log:         log,
		metrics:     m,
	}
}

type settledEvent struct {
	OrderID   int64   `json:"order_id"`
	UserID    int64   `json:"user_id"`
	PaymentID int64   `json:"payment_id"`
	Amount    int64   `json:"amount"`
	CourseIDs []int64 `json:"course_ids"`
}

func (u *SettlementUsecase) Settle(ctx context.Context, order model.Order, payment model.Payment) ([]model.Enrollment, error) {
	if payment.Status != model.PaymentStatusSuccessful {
		return nil, &Error{Kind: KindInvalidInput, Message: "payment is not successful", OrderID: order.ID, PaymentID: payment.ID}
	}
	if payment.OrderID != order.ID || payment.UserID != order.UserID {
		return nil, &Error{Kind: KindInvalidInput, Message: "payment does not belong to order", OrderID: order.ID, PaymentID: payment.ID}
	}

	log := u.log.With(logging.OrderID(order.ID), logging.PaymentID(payment.ID))

	// 最新の状態で判断する
	current, err := u.orders.FindByID(ctx, order.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &Error{Kind: KindOrderNotFound, Message: "order not found", OrderID: order.ID}
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	switch current.Status {
	case model.OrderStatusSuccessful:
		// 確定済み。何もしない
		u.metrics.Settled("noop")
		return nil, nil
	case model.OrderStatusFailed:
		// 失敗確定後に入金が成功した。自動では戻さない
		log.Error("successful payment for failed order", logging.Step("settle"))
		u.metrics.Settled("conflict")
		return nil, &Error{Kind: KindAlreadyProcessed, Message: "order is already failed", OrderID: order.ID, PaymentID: payment.ID}
	case model.OrderStatusPending:
	default:
		return nil, fmt.Errorf("unknown order status %q", current.Status)
	}

	items, err := u.orderItems.ListByOrderID(ctx, order.ID)
	if err != nil {
		return nil, &Error{Kind: KindSettlementIncomplete, Message: "could not load order items", OrderID: order.ID, PaymentID: payment.ID, Err: err}
	}

	enrolled := make([]model.Enrollment, 0, len(items))
	var failures []error
	for _, it := range items {
		e, err := u.enroll(ctx, current.UserID, it.CourseID, payment.ID)
		if err != nil {
			failures = append(failures, fmt.Errorf("course %d: %w", it.CourseID, err))
			continue
		}
		enrolled = append(enrolled, e)
	}
	if len(failures) > 0 {
		u.metrics.Settled("incomplete")
		log.Warn("settlement incomplete", zap.Errors("failures", failures))
		return enrolled, &Error{
			Kind:      KindSettlementIncomplete,
			Message:   fmt.Sprintf("%d of %d enrollments failed", len(failures), len(items)),
			OrderID:   order.ID,
			PaymentID: payment.ID,
			Err:       errors.Join(failures...),
		}
	}

	transitioned, err := u.orders.UpdateStatusIf(ctx, order.ID, model.OrderStatusPending, model.OrderStatusSuccessful)
	if err != nil {
		return enrolled, &Error{Kind: KindSettlementIncomplete, Message: "could not finalize order", OrderID: order.ID, PaymentID: payment.ID, Err: err}
	}
	if !transitioned {
		// 別の実行が先に確定させた
		u.metrics.Settled("noop")
		return enrolled, nil
	}

	u.metrics.Settled("transitioned")
	log.Info("order settled", logging.Status(string(model.OrderStatusSuccessful)))

	u.afterSettled(ctx, log, current, payment, items)
	return enrolled, nil
}

// 既に登録済みならそれを返す
func (u *SettlementUsecase) enroll(ctx context.Context, userID int64, courseID int64, paymentID int64) (model.Enrollment, error) {
	existing, found, err := u.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return model.Enrollment{}, err
	}
	if found {
		return existing, nil
	}

	pid := paymentID
	e, err := u.enrollments.Create(ctx, model.Enrollment{UserID: userID, CourseID: courseID, PaymentID: &pid})
	if errors.Is(err, repo.ErrDuplicate) {
		existing, found, err = u.enrollments.FindByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return model.Enrollment{}, err
		}
		if found {
			return existing, nil
		}
		return model.Enrollment{}, repo.ErrDuplicate
	}
	return e, err
}

// 注文を確定させた実行だけが行う後処理。失敗してもログのみ
func (u *SettlementUsecase) afterSettled(ctx context.Context, log *zap.Logger, order model.Order, payment model.Payment, items []model.OrderItem) {
	if order.CouponID != nil {
		ok, err := u.coupons.IncrementUsage(ctx, *order.CouponID)
		switch {
		case err != nil:
			log.Error("coupon usage increment failed", zap.Int64("coupon_id", *order.CouponID), zap.Error(err))
		case !ok:
			log.Warn("coupon usage limit reached at settlement", zap.Int64("coupon_id", *order.CouponID))
		}
	}

	courseIDs := make([]int64, 0, len(items))
	for _, it := range items {
		courseIDs = append(courseIDs, it.CourseID)
	}

	if cart, err := u.carts.FindByUserID(ctx, order.UserID); err == nil {
		if err := u.cartItems.DeleteByCartAndCourses(ctx, cart.ID, courseIDs); err != nil {
			log.Warn("cart cleanup failed", zap.Error(err))
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Warn("cart lookup failed", zap.Error(err))
	}

	u.dispatcher.Fire(EventOrderSettled, settledEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		CourseIDs: courseIDs,
	})
}
