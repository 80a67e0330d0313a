package usecase

import (
	"context"
	"sync"
	"time"

	"academy/internal/domain/model"
	"academy/internal/infra/gateway"
	"academy/internal/infra/storage"
	repo "academy/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// リポジトリのモック
// =====================

type mockCourseRepo struct{ mock.Mock }

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (model.Course, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Course), args.Error(1)
}

func (m *mockCourseRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Course, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]model.Course), args.Error(1)
}

type mockCartRepo struct{ mock.Mock }

func (m *mockCartRepo) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *mockCartRepo) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *mockCartRepo) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Cart), args.Error(1)
}

type mockCartItemRepo struct{ mock.Mock }

func (m *mockCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *mockCartItemRepo) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *mockCartItemRepo) ExistsByCartAndCourse(ctx context.Context, cartID int64, courseID int64) (bool, error) {
	args := m.Called(ctx, cartID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartItemRepo) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *mockCartItemRepo) DeleteByID(ctx context.Context, cartItemID int64) error {
	return m.Called(ctx, cartItemID).Error(0)
}

func (m *mockCartItemRepo) DeleteByCartAndCourses(ctx context.Context, cartID int64, courseIDs []int64) error {
	return m.Called(ctx, cartID, courseIDs).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatusIf(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) ClaimPaymentLease(ctx context.Context, orderID int64, token string, now time.Time, until time.Time) (bool, error) {
	args := m.Called(ctx, orderID, token, now, until)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) HoldsPaymentLease(ctx context.Context, orderID int64, token string, now time.Time) (bool, error) {
	args := m.Called(ctx, orderID, token, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) ReleasePaymentLease(ctx context.Context, orderID int64, token string) error {
	return m.Called(ctx, orderID, token).Error(0)
}

type mockOrderItemRepo struct{ mock.Mock }

func (m *mockOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *mockOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) HasPendingByOrderID(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) List(ctx context.Context, f repo.PaymentListFilter) ([]model.Payment, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentRepo) UpdateStatusIf(ctx context.Context, paymentID int64, from model.PaymentStatus, to model.PaymentStatus, failureCode *string) (bool, error) {
	args := m.Called(ctx, paymentID, from, to, failureCode)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) ReviewIfPending(ctx context.Context, paymentID int64, to model.PaymentStatus, review repo.PaymentReview) (bool, error) {
	args := m.Called(ctx, paymentID, to, review)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) ListSuccessfulWithPendingOrder(ctx context.Context, limit int) ([]model.Payment, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) ListPendingCardOlderThan(ctx context.Context, before time.Time, limit int) ([]model.Payment, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]model.Payment), args.Error(1)
}

type mockEnrollmentRepo struct{ mock.Mock }

func (m *mockEnrollmentRepo) FindByUserAndCourse(ctx context.Context, userID int64, courseID int64) (model.Enrollment, bool, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(model.Enrollment), args.Bool(1), args.Error(2)
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, e model.Enrollment) (model.Enrollment, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(model.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	panic("not used in this test")
}

type mockCouponRepo struct{ mock.Mock }

func (m *mockCouponRepo) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	panic("not used in this test")
}

func (m *mockCouponRepo) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Coupon), args.Error(1)
}

func (m *mockCouponRepo) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockAuditRepo struct{ mock.Mock }

func (m *mockAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockAuditRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.AuditLog), args.Error(1)
}

// =====================
// Tx は渡されたモックをそのまま使う
// =====================

type fakeTxRepos struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	payments    repo.PaymentRepository
	enrollments repo.EnrollmentRepository
	auditLogs   repo.AuditLogRepository
}

func (r fakeTxRepos) Orders() repo.OrderRepository           { return r.orders }
func (r fakeTxRepos) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r fakeTxRepos) Payments() repo.PaymentRepository       { return r.payments }
func (r fakeTxRepos) Enrollments() repo.EnrollmentRepository { return r.enrollments }
func (r fakeTxRepos) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

type fakeTxManager struct {
	repos fakeTxRepos
}

func (m fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// =====================
// 外部依存のモック
// =====================

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(gateway.ChargeResult), args.Error(1)
}

func (m *mockGateway) Retrieve(ctx context.Context, chargeID string) (gateway.ChargeResult, error) {
	args := m.Called(ctx, chargeID)
	return args.Get(0).(gateway.ChargeResult), args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Upload(ctx context.Context, obj storage.Object, pathHint string) (storage.Stored, error) {
	args := m.Called(ctx, obj, pathHint)
	return args.Get(0).(storage.Stored), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

type mockSlipValidator struct{ mock.Mock }

func (m *mockSlipValidator) ValidateSlip(f SlipFile) (SlipInfo, error) {
	args := m.Called(f)
	return args.Get(0).(SlipInfo), args.Error(1)
}

// 送られた通知を記録する
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
	block  chan struct{}
}

func (n *recordingNotifier) Send(ctx context.Context, event string, payload any) error {
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedIDs struct{ id string }

func (g fixedIDs) NewID() string { return g.id }
