package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"academy/internal/domain/model"
	"academy/internal/infra/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReconcileFixture() (*ReconcileUsecase, *mockPaymentRepo, *mockGateway, settlementFixture) {
	payments := new(mockPaymentRepo)
	gw := new(mockGateway)
	s := newSettlementFixture()
	return NewReconcileUsecase(payments, s.orders, gw, s.uc, fixedClock{testNow}, nil), payments, gw, s
}

func strp(s string) *string { return &s }

func TestReconcile_SettlesStuckOrders(t *testing.T) {
	uc, payments, _, s := newReconcileFixture()
	order := pendingOrder(1, 7, 4500)

	payments.On("ListPendingCardOlderThan", mock.Anything, testNow.Add(-time.Minute), 100).Return([]model.Payment{}, nil)
	payments.On("ListSuccessfulWithPendingOrder", mock.Anything, 100).Return([]model.Payment{successfulPayment(30, order)}, nil)

	s.orders.On("FindByID", mock.Anything, int64(1)).Return(order, nil)
	s.orderItems.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{{CourseID: 10}}, nil)
	s.enrollments.On("FindByUserAndCourse", mock.Anything, int64(7), int64(10)).Return(model.Enrollment{ID: 1}, true, nil)
	s.orders.On("UpdateStatusIf", mock.Anything, int64(1), model.OrderStatusPending, model.OrderStatusSuccessful).Return(true, nil)
	s.carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 2}, nil)
	s.cartItems.On("DeleteByCartAndCourses", mock.Anything, int64(2), []int64{10}).Return(nil)

	rep, err := uc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, 0, rep.Failed)
	s.dispatcher.Wait()
}

func TestReconcile_ResolvesPendingCharges(t *testing.T) {
	uc, payments, gw, s := newReconcileFixture()

	paid := model.Payment{ID: 1, OrderID: 10, PaymentType: model.PaymentTypeCard, Status: model.PaymentStatusPending, GatewayChargeID: strp("chrg_paid")}
	failed := model.Payment{ID: 2, OrderID: 11, PaymentType: model.PaymentTypeCard, Status: model.PaymentStatusPending, GatewayChargeID: strp("chrg_failed")}
	still := model.Payment{ID: 3, OrderID: 12, PaymentType: model.PaymentTypeCard, Status: model.PaymentStatusPending, GatewayChargeID: strp("chrg_wait")}
	broken := model.Payment{ID: 4, OrderID: 13, PaymentType: model.PaymentTypeCard, Status: model.PaymentStatusPending, GatewayChargeID: strp("chrg_err")}

	payments.On("ListPendingCardOlderThan", mock.Anything, mock.Anything, 100).Return([]model.Payment{paid, failed, still, broken}, nil)
	payments.On("ListSuccessfulWithPendingOrder", mock.Anything, 100).Return([]model.Payment{}, nil)

	gw.On("Retrieve", mock.Anything, "chrg_paid").Return(gateway.ChargeResult{ID: "chrg_paid", Paid: true}, nil)
	gw.On("Retrieve", mock.Anything, "chrg_failed").Return(gateway.ChargeResult{ID: "chrg_failed", FailureCode: "payment_rejected"}, nil)
	gw.On("Retrieve", mock.Anything, "chrg_wait").Return(gateway.ChargeResult{ID: "chrg_wait"}, nil)
	gw.On("Retrieve", mock.Anything, "chrg_err").Return(gateway.ChargeResult{}, errors.New("timeout"))

	payments.On("UpdateStatusIf", mock.Anything, int64(1), model.PaymentStatusPending, model.PaymentStatusSuccessful, (*string)(nil)).Return(true, nil)
	payments.On("UpdateStatusIf", mock.Anything, int64(2), model.PaymentStatusPending, model.PaymentStatusFailed, strp("payment_rejected")).Return(true, nil)
	s.orders.On("UpdateStatusIf", mock.Anything, int64(11), model.OrderStatusPending, model.OrderStatusFailed).Return(true, nil)

	rep, err := uc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.ChargesClosed)
	assert.Equal(t, 1, rep.Failed)
	payments.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, int64(3), mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_RunStopsOnCancel(t *testing.T) {
	uc, payments, _, _ := newReconcileFixture()
	payments.On("ListPendingCardOlderThan", mock.Anything, mock.Anything, 100).Return([]model.Payment{}, nil)
	payments.On("ListSuccessfulWithPendingOrder", mock.Anything, 100).Return([]model.Payment{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		uc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
