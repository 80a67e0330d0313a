package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"academy/internal/domain/model"
	"academy/internal/infra/gateway"
	"academy/internal/infra/logging"
	"academy/internal/infra/metrics"
	repo "academy/internal/repository"

	"go.uber.org/zap"
)

// PaymentResult は決済1回の結果
type PaymentResult struct {
	PaymentID       int64               `json:"payment_id"`
	OrderID         int64               `json:"order_id"`
	PaymentType     model.PaymentType   `json:"payment_type"`
	Status          model.PaymentStatus `json:"status"`
	OrderStatus     model.OrderStatus   `json:"order_status"`
	Amount          int64               `json:"amount"`
	GatewayChargeID string              `json:"gateway_charge_id,omitempty"`
	FailureCode     string              `json:"failure_code,omitempty"`
	SlipImageURL    string              `json:"slip_image_url,omitempty"`
	EnrolledCourses []int64             `json:"enrolled_courses,omitempty"`
}

type CardPaymentUsecase struct {
	validator  *PaymentValidator
	orders     repo.OrderRepository
	payments   repo.PaymentRepository
	gateway    PaymentGateway
	settlement *SettlementUsecase
	log        *zap.Logger
	metrics    *metrics.Checkout
}

func NewCardPaymentUsecase(
	validator *PaymentValidator,
	orders repo.OrderRepository,
	payments repo.PaymentRepository,
	gw PaymentGateway,
	settlement *SettlementUsecase,
	log *zap.Logger,
	m *metrics.Checkout,
) *CardPaymentUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CardPaymentUsecase{
		validator:  validator,
		orders:     orders,
		payments:   payments,
		gateway:    gw,
		settlement: settlement,
		log:        log,
		metrics:    m,
	}
}

// Pay は検証から決済までを通しで行う
func (u *CardPaymentUsecase) Pay(ctx context.Context, userID int64, orderID int64, cardToken string) (PaymentResult, error) {
	v, err := u.validator.Validate(ctx, userID, orderID)
	if err != nil {
		return PaymentResult{}, err
	}
	return u.Charge(ctx, v, cardToken)
}

// Charge はカードで同期的に決済する
func (u *CardPaymentUsecase) Charge(ctx context.Context, v ValidatedOrder, cardToken string) (PaymentResult, error) {
	defer func() {
		if err := u.validator.Release(context.WithoutCancel(ctx), v); err != nil {
			u.log.Warn("release payment lease failed", logging.OrderID(v.Order.ID), zap.Error(err))
		}
	}()

	cardToken = strings.TrimSpace(cardToken)
	if cardToken == "" {
		return PaymentResult{}, &Error{Kind: KindInvalidInput, Message: "card token is required", OrderID: v.Order.ID}
	}

	log := u.log.With(logging.OrderID(v.Order.ID), logging.UserID(v.Order.UserID))

	// 課金直前に再確認
	if err := u.validator.ensureHeld(ctx, v); err != nil {
		return PaymentResult{}, err
	}

	idemKey, err := u.chargeKey(ctx, v.Order.ID)
	if err != nil {
		return PaymentResult{}, err
	}

	res, err := u.gateway.Charge(ctx, gateway.ChargeRequest{
		Amount:         v.ChargeAmount,
		CardToken:      cardToken,
		Description:    fmt.Sprintf("order #%d", v.Order.ID),
		IdempotencyKey: idemKey,
		Metadata:       map[string]string{"order_id": strconv.FormatInt(v.Order.ID, 10)},
	})
	if err != nil {
		return u.handleGatewayError(ctx, log, v, err)
	}

	// 課金は済んでいるので、リースを失っていても記録は残す
	if err := u.validator.ensureHeld(ctx, v); err != nil {
		log.Warn("payment lease lost during charge", logging.Step("persist"), zap.String("charge_id", res.ID), zap.Error(err))
	}

	outcome := gateway.MapChargeStatus(res)
	status := paymentStatusFor(outcome)

	chargeID := res.ID
	p := model.Payment{
		OrderID:         v.Order.ID,
		UserID:          v.Order.UserID,
		PaymentType:     model.PaymentTypeCard,
		Status:          status,
		Amount:          v.ChargeAmount,
		GatewayChargeID: &chargeID,
	}
	if res.FailureCode != "" {
		code := res.FailureCode
		p.FailureCode = &code
	}

	saved, err := u.payments.Create(ctx, p)
	if err != nil {
		log.Error("charge succeeded at gateway but payment was not recorded",
			zap.String("charge_id", res.ID), logging.Status(string(status)), zap.Error(err))
		return PaymentResult{}, fmt.Errorf("create payment: %w", err)
	}
	u.metrics.PaymentRecorded(string(model.PaymentTypeCard), string(status))

	result := PaymentResult{
		PaymentID:       saved.ID,
		OrderID:         v.Order.ID,
		PaymentType:     model.PaymentTypeCard,
		Status:          status,
		OrderStatus:     model.OrderStatusPending,
		Amount:          saved.Amount,
		GatewayChargeID: res.ID,
		FailureCode:     res.FailureCode,
	}

	switch status {
	case model.PaymentStatusSuccessful:
		enrolled, err := u.settlement.Settle(ctx, v.Order, saved)
		if err != nil {
			// 決済自体は成功。照合ジョブが確定させる
			log.Warn("settlement deferred to reconciler", logging.PaymentID(saved.ID), zap.Error(err))
			return result, nil
		}
		result.OrderStatus = model.OrderStatusSuccessful
		for _, e := range enrolled {
			result.EnrolledCourses = append(result.EnrolledCourses, e.CourseID)
		}
	case model.PaymentStatusFailed:
		if _, err := u.orders.UpdateStatusIf(ctx, v.Order.ID, model.OrderStatusPending, model.OrderStatusFailed); err != nil {
			return result, fmt.Errorf("mark order failed: %w", err)
		}
		result.OrderStatus = model.OrderStatusFailed
	case model.PaymentStatusPending:
		log.Info("charge pending at gateway", logging.PaymentID(saved.ID), zap.String("charge_id", res.ID))
	}

	return result, nil
}

// ゲートウェイのエラーを業務エラーに変換する
func (u *CardPaymentUsecase) handleGatewayError(ctx context.Context, log *zap.Logger, v ValidatedOrder, err error) (PaymentResult, error) {
	ge, ok := gateway.AsError(err)
	if !ok {
		log.Error("unexpected gateway response", zap.Error(err))
		return PaymentResult{}, fmt.Errorf("charge card: %w", err)
	}
	u.metrics.GatewayError(string(ge.Category))

	kind := kindForCategory(ge.Category)
	if kind == KindGatewayUnavailable {
		// 何も記録しない。やり直しても冪等キーは同じなので二重課金にはならない
		log.Warn("gateway unavailable", zap.Error(err))
		return PaymentResult{}, &Error{Kind: kind, Message: "payment gateway is temporarily unavailable", OrderID: v.Order.ID, Err: err}
	}

	// カード側の拒否は失敗行を残し、注文も failed にする
	code := ge.Code
	saved, cerr := u.payments.Create(ctx, model.Payment{
		OrderID:     v.Order.ID,
		UserID:      v.Order.UserID,
		PaymentType: model.PaymentTypeCard,
		Status:      model.PaymentStatusFailed,
		Amount:      v.ChargeAmount,
		FailureCode: &code,
	})
	if cerr != nil {
		return PaymentResult{}, fmt.Errorf("record declined payment: %w", cerr)
	}
	u.metrics.PaymentRecorded(string(model.PaymentTypeCard), string(model.PaymentStatusFailed))

	if _, uerr := u.orders.UpdateStatusIf(ctx, v.Order.ID, model.OrderStatusPending, model.OrderStatusFailed); uerr != nil {
		return PaymentResult{}, fmt.Errorf("mark order failed: %w", uerr)
	}

	return PaymentResult{}, &Error{Kind: kind, Message: ge.Message, OrderID: v.Order.ID, PaymentID: saved.ID, Err: err}
}

// ゲートウェイに渡す冪等キー。記録済みのカード試行の数で決まるので、
// 何も記録されなかった試行（通信断・タイムアウト）をやり直すと同じキーになる
func (u *CardPaymentUsecase) chargeKey(ctx context.Context, orderID int64) (string, error) {
	payments, err := u.payments.ListByOrderID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("list payments: %w", err)
	}
	attempt := 1
	for _, p := range payments {
		if p.PaymentType == model.PaymentTypeCard {
			attempt++
		}
	}
	return fmt.Sprintf("order-%d-card-%d", orderID, attempt), nil
}

func kindForCategory(c gateway.Category) Kind {
	switch c {
	case gateway.CategoryInvalidCard:
		return KindInvalidCard
	case gateway.CategoryExpiredCard:
		return KindExpiredCard
	case gateway.CategoryInsufficientFunds:
		return KindInsufficientFunds
	case gateway.CategoryUnavailable:
		return KindGatewayUnavailable
	case gateway.CategoryDeclined:
		return KindDeclined
	default:
		return KindDeclined
	}
}

func paymentStatusFor(o gateway.ChargeOutcome) model.PaymentStatus {
	switch o {
	case gateway.OutcomeSuccessful:
		return model.PaymentStatusSuccessful
	case gateway.OutcomeFailed:
		return model.PaymentStatusFailed
	default:
		return model.PaymentStatusPending
	}
}
