package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"academy/internal/domain/model"
	"academy/internal/infra/logging"
	repo "academy/internal/repository"

	"go.uber.org/zap"
)

// AdminPaymentUsecase は振込の審査（承認・却下）
type AdminPaymentUsecase struct {
	tx         repo.TransactionManager
	payments   repo.PaymentRepository
	orders     repo.OrderRepository
	settlement *SettlementUsecase
	clock      Clock
	log        *zap.Logger
}

func NewAdminPaymentUsecase(
	tx repo.TransactionManager,
	payments repo.PaymentRepository,
	orders repo.OrderRepository,
	settlement *SettlementUsecase,
	clock Clock,
	log *zap.Logger,
) *AdminPaymentUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminPaymentUsecase{tx: tx, payments: payments, orders: orders, settlement: settlement, clock: clock, log: log}
}

type PaymentListOutput struct {
	Items []model.Payment `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ReviewOutput struct {
	Payment     model.Payment     `json:"payment"`
	OrderStatus model.OrderStatus `json:"order_status"`
}

// 審査待ちの振込一覧
func (u *AdminPaymentUsecase) ListPending(ctx context.Context, page int, limit int) (PaymentListOutput, error) {
	if page < 1 {
		return PaymentListOutput{}, NewError(KindInvalidInput, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return PaymentListOutput{}, NewError(KindInvalidInput, "invalid limit")
	}

	status := model.PaymentStatusPending
	typ := model.PaymentTypeBankTransfer
	items, total, err := u.payments.List(ctx, repo.PaymentListFilter{Status: &status, PaymentType: &typ, Page: page, Limit: limit})
	if err != nil {
		return PaymentListOutput{}, fmt.Errorf("list payments: %w", err)
	}
	return PaymentListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// 承認したら決済成功にして、そのまま確定処理まで進める
func (u *AdminPaymentUsecase) Approve(ctx context.Context, adminID int64, paymentID int64) (ReviewOutput, error) {
	p, err := u.review(ctx, adminID, paymentID, model.PaymentStatusSuccessful, nil)
	if err != nil {
		return ReviewOutput{}, err
	}

	order, err := u.orders.FindByID(ctx, p.OrderID)
	if err != nil {
		return ReviewOutput{}, fmt.Errorf("find order: %w", err)
	}

	if _, err := u.settlement.Settle(ctx, order, p); err != nil {
		if IsKind(err, KindSettlementIncomplete) {
			// 承認は確定済み。照合ジョブが続きをやる
			u.log.Warn("settlement deferred to reconciler", logging.PaymentID(p.ID), zap.Error(err))
			return ReviewOutput{Payment: p, OrderStatus: model.OrderStatusPending}, nil
		}
		return ReviewOutput{}, err
	}
	return ReviewOutput{Payment: p, OrderStatus: model.OrderStatusSuccessful}, nil
}

// 却下。決済と注文をまとめて failed にする
func (u *AdminPaymentUsecase) Reject(ctx context.Context, adminID int64, paymentID int64, reason string) (ReviewOutput, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > 255 {
		return ReviewOutput{}, NewError(KindInvalidInput, "reason is required (max 255)")
	}
	p, err := u.review(ctx, adminID, paymentID, model.PaymentStatusFailed, &reason)
	if err != nil {
		return ReviewOutput{}, err
	}
	return ReviewOutput{Payment: p, OrderStatus: model.OrderStatusFailed}, nil
}

// 決済ごとの審査履歴（新しい順）
func (u *AdminPaymentUsecase) History(ctx context.Context, paymentID int64) ([]model.AuditLog, error) {
	if paymentID <= 0 {
		return nil, NewError(KindInvalidInput, "invalid id")
	}
	if _, err := u.payments.FindByID(ctx, paymentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: "payment not found", PaymentID: paymentID}
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}

	resource := model.AuditResourcePayment
	var out []model.AuditLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, err := r.AuditLogs().List(ctx, repo.AuditLogFilter{ResourceType: &resource, ResourceID: &paymentID, Limit: repo.DefaultAuditLogLimit})
		if err != nil {
			return fmt.Errorf("list audit logs: %w", err)
		}
		out = logs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *AdminPaymentUsecase) review(ctx context.Context, adminID int64, paymentID int64, to model.PaymentStatus, reason *string) (model.Payment, error) {
	if adminID <= 0 {
		return model.Payment{}, NewError(KindForbidden, "admin only")
	}
	if paymentID <= 0 {
		return model.Payment{}, NewError(KindInvalidInput, "invalid id")
	}

	var out model.Payment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByID(ctx, paymentID)
		if errors.Is(err, repo.ErrNotFound) {
			return &Error{Kind: KindNotFound, Message: "payment not found", PaymentID: paymentID}
		}
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if p.PaymentType != model.PaymentTypeBankTransfer {
			return &Error{Kind: KindInvalidInput, Message: "only bank transfers are reviewed", PaymentID: paymentID}
		}
		if !p.Status.CanTransitionTo(to) {
			return &Error{Kind: KindAlreadyProcessed, Message: "payment is already " + string(p.Status), PaymentID: paymentID, OrderID: p.OrderID}
		}

		now := u.clock.Now()
		ok, err := r.Payments().ReviewIfPending(ctx, paymentID, to, repo.PaymentReview{ReviewerID: adminID, ReviewedAt: now, RejectReason: reason})
		if err != nil {
			return fmt.Errorf("review payment: %w", err)
		}
		if !ok {
			// 同時に別の管理者が審査した
			return &Error{Kind: KindAlreadyProcessed, Message: "payment was reviewed concurrently", PaymentID: paymentID, OrderID: p.OrderID}
		}

		// 却下された振込の注文はここで終わり。払い直しは新しい注文で行う
		if to == model.PaymentStatusFailed {
			if _, err := r.Orders().UpdateStatusIf(ctx, p.OrderID, model.OrderStatusPending, model.OrderStatusFailed); err != nil {
				return fmt.Errorf("mark order failed: %w", err)
			}
		}

		before, _ := json.Marshal(map[string]any{"status": p.Status})
		after := map[string]any{"status": to}
		if reason != nil {
			after["reject_reason"] = *reason
		}
		afterJSON, _ := json.Marshal(after)

		action := model.AuditActionApprovePayment
		if to == model.PaymentStatusFailed {
			action = model.AuditActionRejectPayment
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       action,
			ResourceType: model.AuditResourcePayment,
			ResourceID:   paymentID,
			BeforeJSON:   string(before),
			AfterJSON:    string(afterJSON),
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}

		p.Status = to
		p.ReviewedBy = &adminID
		p.ReviewedAt = &now
		p.RejectReason = reason
		out = p
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}
	return out, nil
}
