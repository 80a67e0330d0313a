package usecase

import (
	"context"
	"time"

	"academy/internal/domain/model"
	"academy/internal/infra/gateway"
	"academy/internal/infra/logging"
	repo "academy/internal/repository"

	"go.uber.org/zap"
)

const (
	reconcileBatch = 100
	// 作成直後のカード決済はまだ処理中のことが多い
	pendingCardMinAge = time.Minute
)

// ReconcileUsecase は途中で止まった決済を拾って確定まで進める
type ReconcileUsecase struct {
	payments   repo.PaymentRepository
	orders     repo.OrderRepository
	gateway    PaymentGateway
	settlement *SettlementUsecase
	clock      Clock
	log        *zap.Logger
}

func NewReconcileUsecase(
	payments repo.PaymentRepository,
	orders repo.OrderRepository,
	gw PaymentGateway,
	settlement *SettlementUsecase,
	clock Clock,
	log *zap.Logger,
) *ReconcileUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReconcileUsecase{payments: payments, orders: orders, gateway: gw, settlement: settlement, clock: clock, log: log}
}

type ReconcileReport struct {
	Settled       int `json:"settled"`
	ChargesClosed int `json:"charges_closed"`
	Failed        int `json:"failed"`
}

func (u *ReconcileUsecase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rep, err := u.RunOnce(ctx)
			if err != nil {
				u.log.Error("reconcile run failed", zap.Error(err))
				continue
			}
			if rep.Settled+rep.ChargesClosed+rep.Failed > 0 {
				u.log.Info("reconcile run",
					zap.Int("settled", rep.Settled),
					zap.Int("charges_closed", rep.ChargesClosed),
					zap.Int("failed", rep.Failed))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (u *ReconcileUsecase) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var rep ReconcileReport

	if err := u.resolvePendingCharges(ctx, &rep); err != nil {
		return rep, err
	}
	if err := u.settleStuckOrders(ctx, &rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// 決済は成功しているのに注文が pending のまま
func (u *ReconcileUsecase) settleStuckOrders(ctx context.Context, rep *ReconcileReport) error {
	payments, err := u.payments.ListSuccessfulWithPendingOrder(ctx, reconcileBatch)
	if err != nil {
		return err
	}
	for _, p := range payments {
		log := u.log.With(logging.OrderID(p.OrderID), logging.PaymentID(p.ID), logging.Step("settle"))

		order, err := u.orders.FindByID(ctx, p.OrderID)
		if err != nil {
			log.Warn("find order failed", zap.Error(err))
			rep.Failed++
			continue
		}
		if _, err := u.settlement.Settle(ctx, order, p); err != nil {
			log.Warn("settle failed", zap.Error(err))
			rep.Failed++
			continue
		}
		rep.Settled++
	}
	return nil
}

// ゲートウェイ側で処理中だったカード決済の結果を取りに行く
func (u *ReconcileUsecase) resolvePendingCharges(ctx context.Context, rep *ReconcileReport) error {
	before := u.clock.Now().Add(-pendingCardMinAge)
	payments, err := u.payments.ListPendingCardOlderThan(ctx, before, reconcileBatch)
	if err != nil {
		return err
	}
	for _, p := range payments {
		log := u.log.With(logging.OrderID(p.OrderID), logging.PaymentID(p.ID), logging.Step("retrieve"))
		if p.GatewayChargeID == nil || *p.GatewayChargeID == "" {
			continue
		}

		res, err := u.gateway.Retrieve(ctx, *p.GatewayChargeID)
		if err != nil {
			log.Warn("retrieve charge failed", zap.Error(err))
			rep.Failed++
			continue
		}

		switch gateway.MapChargeStatus(res) {
		case gateway.OutcomeSuccessful:
			if _, err := u.payments.UpdateStatusIf(ctx, p.ID, model.PaymentStatusPending, model.PaymentStatusSuccessful, nil); err != nil {
				log.Warn("mark payment successful failed", zap.Error(err))
				rep.Failed++
				continue
			}
			// 注文の確定は settleStuckOrders が拾う
			rep.ChargesClosed++
		case gateway.OutcomeFailed:
			code := res.FailureCode
			if _, err := u.payments.UpdateStatusIf(ctx, p.ID, model.PaymentStatusPending, model.PaymentStatusFailed, &code); err != nil {
				log.Warn("mark payment failed failed", zap.Error(err))
				rep.Failed++
				continue
			}
			if _, err := u.orders.UpdateStatusIf(ctx, p.OrderID, model.OrderStatusPending, model.OrderStatusFailed); err != nil {
				log.Warn("mark order failed failed", zap.Error(err))
				rep.Failed++
				continue
			}
			rep.ChargesClosed++
		case gateway.OutcomePending:
		}
	}
	return nil
}
